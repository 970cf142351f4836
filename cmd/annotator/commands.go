package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/annotator/internal/annotate"
	"github.com/julianshen/annotator/internal/analyzer"
	"github.com/julianshen/annotator/internal/config"
	"github.com/julianshen/annotator/internal/generate"
	"github.com/julianshen/annotator/internal/output"
	"github.com/julianshen/annotator/internal/provider"
	"github.com/julianshen/annotator/internal/review"
)

func runCmd() *cobra.Command {
	var (
		stagedFlag bool
		allFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Analyze source files and apply documentation interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, root, err := resolveTarget(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gen, err := newGenerator(cfg, root)
			if err != nil {
				return err
			}
			a := newAnnotator(cfg, gen, stagedFlag)

			files, err := a.CollectFiles(cmd.Context(), target, stagedFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rv, err := review.New(out, review.HuhPrompter{}, review.Options{AcceptAll: allFlag})
			if err != nil {
				return err
			}

			p := &processor{
				annotator: a,
				reviewer:  rv,
				out:       out,
				root:      root,
				staged:    stagedFlag,
			}
			summary, err := p.run(cmd.Context(), files)
			if err != nil {
				return err
			}
			if len(files) > 0 {
				summary.Print(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stagedFlag, "staged", false, "only analyze git-staged files")
	cmd.Flags().BoolVarP(&allFlag, "all", "a", false, "accept all proposals without prompting")

	return cmd
}

func checkCmd() *cobra.Command {
	var (
		stagedFlag bool
		outputFlag string
	)

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Dry run: show what documentation would be generated without modifying files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, root, err := resolveTarget(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gen, err := newGenerator(cfg, root)
			if err != nil {
				return err
			}
			a := newAnnotator(cfg, gen, stagedFlag)

			files, err := a.CollectFiles(cmd.Context(), target, stagedFlag)
			if err != nil {
				return err
			}

			report := check(cmd.Context(), a, files, root)
			report.Target = displayPath(root, target)
			report.Model = cfg.Provider.Model

			out, err := output.NewFormatter(outputFlag).Format(report)
			if err != nil {
				return fmt.Errorf("formatting output: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&stagedFlag, "staged", false, "only analyze git-staged files")
	cmd.Flags().StringVar(&outputFlag, "output", "markdown", "output format: json, markdown")

	return cmd
}

// resolveTarget returns the absolute target path (default ".") and the
// search root for OpenAPI, Postman and style guide files: the target
// itself when it is a directory, otherwise its parent.
func resolveTarget(args []string) (target, root string, err error) {
	target = "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", "", fmt.Errorf("path does not exist: %s", target)
	}
	if info.IsDir() {
		return abs, abs, nil
	}
	return abs, filepath.Dir(abs), nil
}

func newGenerator(cfg *config.Config, root string) (*generate.Generator, error) {
	p, err := provider.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	style, err := config.LoadStyleGuide(root, cfg.Annotate.StyleGuide)
	if err != nil {
		return nil, fmt.Errorf("loading style guide: %w", err)
	}
	return generate.New(p, generate.Config{
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
		StyleGuide:  style,
	}), nil
}

func newAnnotator(cfg *config.Config, gen annotate.Generator, staged bool) *annotate.Annotator {
	registry := analyzer.NewRegistry(annotate.PatternConfig(cfg.Analyzer))
	return annotate.New(registry, gen, annotate.OptionsFromConfig(cfg.Annotate, staged))
}

// displayPath shortens path to be relative to base when it lies inside it.
func displayPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
