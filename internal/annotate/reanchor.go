package annotate

import (
	"sort"

	"github.com/julianshen/annotator/internal/symbol"
)

// Reanchor binds each proposal to the undocumented symbol with the same
// name whose line is closest to the proposal's line, and moves the
// proposal to that line. Each symbol takes at most one proposal. Proposals
// whose symbol is gone or already documented are dropped.
func Reanchor(proposals []symbol.DocProposal, symbols []symbol.Symbol) []symbol.DocProposal {
	byName := make(map[string][]symbol.Symbol)
	for _, s := range symbols {
		if !s.HasDocs {
			byName[s.Name] = append(byName[s.Name], s)
		}
	}

	ordered := make([]symbol.DocProposal, len(proposals))
	copy(ordered, proposals)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Line < ordered[j].Line })

	used := make(map[int]bool)
	var out []symbol.DocProposal
	for _, p := range ordered {
		best, found := 0, false
		for _, s := range byName[p.SymbolName] {
			if used[s.Line] {
				continue
			}
			if !found || distance(s.Line, p.Line) < distance(best, p.Line) {
				best, found = s.Line, true
			}
		}
		if !found {
			continue
		}
		used[best] = true
		p.Line = best
		out = append(out, p)
	}
	return out
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
