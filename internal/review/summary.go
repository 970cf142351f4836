package review

import (
	"fmt"
	"io"
	"strings"
)

var ruleStyle = boldStyle.Underline(true)

// Summary totals a run.
type Summary struct {
	Decisions      []Decision
	OpenAPIUpdated []string
	PostmanUpdated []string
}

// Counts returns the accepted and rejected totals and the number of files
// with at least one accepted proposal.
func (s Summary) Counts() (accepted, rejected, files int) {
	for _, d := range s.Decisions {
		accepted += len(d.Accepted)
		rejected += len(d.Rejected)
		if len(d.Accepted) > 0 {
			files++
		}
	}
	return accepted, rejected, files
}

// Print writes the summary to w.
func (s Summary) Print(w io.Writer) {
	accepted, rejected, files := s.Counts()

	var b strings.Builder
	b.WriteString("\n" + ruleStyle.Render("Summary") + "\n")
	fmt.Fprintf(&b, "  Annotated %s across %s",
		nameStyle.Render(plural(accepted, "symbol")),
		countStyle.Render(plural(files, "file")))
	if rejected > 0 {
		fmt.Fprintf(&b, ", skipped %s", countStyle.Render(fmt.Sprint(rejected)))
	}
	b.WriteString("\n")
	for _, p := range s.OpenAPIUpdated {
		fmt.Fprintf(&b, "  Updated OpenAPI spec: %s\n", p)
	}
	for _, p := range s.PostmanUpdated {
		fmt.Fprintf(&b, "  Updated Postman collection: %s\n", p)
	}
	fmt.Fprint(w, b.String())
}
