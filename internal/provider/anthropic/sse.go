package anthropic

import (
	"bufio"
	"io"
	"strings"
)

// maxSSELine bounds a single SSE line. Deltas are small but a buffered
// error payload may not be.
const maxSSELine = 1 << 20

// sseEvent represents a single Server-Sent Event.
type sseEvent struct {
	Event string
	Data  string
}

// sseScanner reads SSE events from an io.Reader one at a time:
//
//	s := newSSEScanner(r)
//	for s.Next() {
//	    evt := s.Event()
//	}
//	if err := s.Err(); err != nil { ... }
type sseScanner struct {
	scanner *bufio.Scanner
	event   sseEvent
	err     error
	done    bool
}

func newSSEScanner(r io.Reader) *sseScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	return &sseScanner{scanner: s}
}

// Next advances to the next event. It returns false at end of input or on
// a read error, which Err then reports.
func (s *sseScanner) Next() bool {
	if s.done {
		return false
	}

	var (
		current sseEvent
		data    []string
		pending bool
	)
	emit := func() bool {
		if !pending {
			return false
		}
		current.Data = strings.Join(data, "\n")
		s.event = current
		return true
	}

	for s.scanner.Scan() {
		line := strings.TrimSuffix(s.scanner.Text(), "\r")
		if line == "" {
			if emit() {
				return true
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			current.Event = value
			pending = true
		case "data":
			data = append(data, value)
			pending = true
		}
	}

	s.err = s.scanner.Err()
	s.done = true
	return emit()
}

// Event returns the most recent SSE event read by Next.
func (s *sseScanner) Event() sseEvent {
	return s.event
}

// Err returns the first non-EOF error encountered by the scanner.
func (s *sseScanner) Err() error {
	return s.err
}
