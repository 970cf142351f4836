package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/julianshen/annotator/internal/annotate"
	"github.com/julianshen/annotator/internal/apidocs"
	"github.com/julianshen/annotator/internal/git"
	"github.com/julianshen/annotator/internal/output"
	"github.com/julianshen/annotator/internal/review"
	"github.com/julianshen/annotator/internal/symbol"
)

// processor drives the interactive run: propose, review, apply, then
// mirror accepted endpoint docs into API description files.
type processor struct {
	annotator *annotate.Annotator
	reviewer  *review.Reviewer
	out       io.Writer
	root      string
	staged    bool
}

func (p *processor) run(ctx context.Context, files []string) (review.Summary, error) {
	var summary review.Summary
	if len(files) == 0 {
		fmt.Fprintln(p.out, "No supported files found.")
		return summary, nil
	}
	fmt.Fprintf(p.out, "Found %d file(s) to analyze.\n", len(files))

	openAPIPath := apidocs.FindOpenAPI(p.root)
	postmanPath := apidocs.FindPostman(p.root)
	if openAPIPath != "" {
		fmt.Fprintf(p.out, "OpenAPI spec: %s\n", displayPath(p.root, openAPIPath))
	}
	if postmanPath != "" {
		fmt.Fprintf(p.out, "Postman collection: %s\n", displayPath(p.root, postmanPath))
	}

	var modified []string
	for _, res := range p.annotator.ProposeAll(ctx, files) {
		name := displayPath(p.root, res.Path)
		fmt.Fprintf(p.out, "\nAnalyzing %s...\n", name)
		if res.Err != nil {
			fmt.Fprintf(p.out, "  Error analyzing %s: %v\n", name, res.Err)
			continue
		}
		if len(res.Proposals) == 0 {
			fmt.Fprintln(p.out, "  No missing documentation found.")
			continue
		}

		decision, err := p.reviewer.Review(name, res.Source, res.Proposals, res.Family)
		if err != nil {
			return summary, err
		}
		decision.Path = res.Path
		if len(decision.Accepted) == 0 {
			summary.Decisions = append(summary.Decisions, decision)
			continue
		}

		applied, err := p.annotator.Apply(res.Path, decision.Accepted)
		if err != nil {
			fmt.Fprintf(p.out, "  Error writing %s: %v\n", name, err)
		}
		// Only docs that reached the file count as annotated or get mirrored.
		decision.Accepted = applied
		summary.Decisions = append(summary.Decisions, decision)
		if len(applied) == 0 {
			continue
		}
		modified = append(modified, res.Path)

		for _, prop := range applied {
			if prop.Endpoint == nil {
				continue
			}
			if openAPIPath != "" && len(prop.OpenAPI) > 0 {
				ok, err := p.mirrorOpenAPI(openAPIPath, prop)
				if err != nil {
					return summary, err
				}
				if ok {
					summary.OpenAPIUpdated = appendOnce(summary.OpenAPIUpdated, displayPath(p.root, openAPIPath))
				}
			}
			if postmanPath != "" {
				ok, err := p.mirrorPostman(postmanPath, prop)
				if err != nil {
					return summary, err
				}
				if ok {
					summary.PostmanUpdated = appendOnce(summary.PostmanUpdated, displayPath(p.root, postmanPath))
				}
			}
		}
	}

	if p.staged && len(modified) > 0 {
		if err := git.NewRunner(p.root).Add(ctx, modified...); err != nil {
			log.Printf("WARNING: staging annotated files: %v", err)
		}
	}
	return summary, nil
}

func (p *processor) mirrorOpenAPI(specPath string, prop symbol.DocProposal) (bool, error) {
	ep := prop.Endpoint
	if diff, err := apidocs.OperationDiff(specPath, ep.Method, ep.Path, prop.OpenAPI); err == nil && diff != "" {
		fmt.Fprintln(p.out, diff)
	}
	ok, err := p.reviewer.Confirm(fmt.Sprintf("Update %s %s in %s?", ep.Method, ep.Path, displayPath(p.root, specPath)))
	if err != nil || !ok {
		return false, err
	}
	if err := apidocs.UpdateOperation(specPath, ep.Method, ep.Path, prop.OpenAPI); err != nil {
		fmt.Fprintf(p.out, "  Error updating OpenAPI spec: %v\n", err)
		return false, nil
	}
	return true, nil
}

func (p *processor) mirrorPostman(collectionPath string, prop symbol.DocProposal) (bool, error) {
	ep := prop.Endpoint
	ok, err := p.reviewer.Confirm(fmt.Sprintf("Update %s %s in %s?", ep.Method, ep.Path, displayPath(p.root, collectionPath)))
	if err != nil || !ok {
		return false, err
	}
	err = apidocs.UpdateRequest(collectionPath, apidocs.RequestUpdate{
		Name:        prop.SymbolName,
		Method:      ep.Method,
		Path:        ep.Path,
		Description: apidocs.Summary(prop.Doc),
		Item:        prop.Postman,
	})
	if err != nil {
		fmt.Fprintf(p.out, "  Error updating Postman collection: %v\n", err)
		return false, nil
	}
	return true, nil
}

// check builds the dry-run report for files without touching them.
func check(ctx context.Context, a *annotate.Annotator, files []string, root string) *output.Report {
	start := time.Now()
	report := &output.Report{}
	for _, res := range a.ProposeAll(ctx, files) {
		fr := output.FileReport{
			Path:      displayPath(root, res.Path),
			Language:  res.Language,
			Proposals: res.Proposals,
		}
		if res.Err != nil {
			fr.Error = res.Err.Error()
		}
		report.Files = append(report.Files, fr)
		report.InputTokens += res.InputTokens
		report.OutputTokens += res.OutputTokens
	}
	report.DurationMs = elapsedMs(start)
	return report
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
