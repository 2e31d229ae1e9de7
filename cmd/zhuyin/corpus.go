package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/japaniel/zhuyin/pkg/corpus"
)

var errDiagnostics = errors.New("corpus has diagnostics")

func newMetadataCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "List publishers, grades and lessons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			md, err := a.svc.Metadata()
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), md)
		},
	}
}

func newItemsCmd(opts *rootOptions) *cobra.Command {
	var (
		count   int
		filters corpus.Filters
	)
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Print a random sample of exercise items",
		Long: `Print up to --count distinct items in random order. Filters on the
same dimension are alternatives; different dimensions must all match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n := count
			if !cmd.Flags().Changed("count") {
				n = a.cfg.Corpus.DefaultCount
			}
			items, err := a.svc.FetchItems(n, filters)
			if err != nil {
				return err
			}
			a.logger.Debug("items sampled", "requested", n, "returned", len(items))
			return opts.print(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of items (defaults to corpus.default_count)")
	cmd.Flags().StringArrayVarP(&filters.Publishers, "publisher", "p", nil, "publisher filter (repeatable)")
	cmd.Flags().StringArrayVarP(&filters.Grades, "grade", "g", nil, "grade filter (repeatable)")
	cmd.Flags().StringArrayVarP(&filters.Lessons, "lesson", "l", nil, "lesson filter (repeatable)")
	return cmd
}

// lintReport summarizes the data quality of an index.
type lintReport struct {
	Items       int                 `json:"items" yaml:"items"`
	Diagnostics []corpus.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

func newLintReport(idx *corpus.Index) lintReport {
	return lintReport{
		Items:       len(idx.Items),
		Diagnostics: append([]corpus.Diagnostic{}, idx.Diagnostics...),
	}
}

func newLintCmd(opts *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report dropped segments and stray Zhuyin symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			idx, err := a.svc.Index()
			if err != nil {
				return err
			}
			report := newLintReport(idx)
			if err := opts.print(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if strict && len(report.Diagnostics) > 0 {
				return fmt.Errorf("%w: %d", errDiagnostics, len(report.Diagnostics))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any diagnostic is found")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-index the corpus file whenever it changes",
		Long: `Watch the corpus file named by corpus.path and print a lint report
after every change. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.cfg.Corpus.Path
			if path == "" {
				return errors.New("watch needs corpus.path (ZHUYIN_CORPUS_PATH); the embedded corpus cannot change")
			}
			if err := reloadCorpus(a, path, opts, cmd.OutOrStdout()); err != nil {
				return err
			}
			return watchCorpus(cmd.Context(), a, path, opts, cmd.OutOrStdout())
		},
	}
}

// reloadCorpus reads path into the service and prints a lint report.
func reloadCorpus(a *app, path string, opts *rootOptions, w io.Writer) error {
	text, err := corpus.Load(path)
	if err != nil {
		return err
	}
	a.svc.SetStatic(text)
	idx, err := a.svc.Index()
	if err != nil {
		return err
	}
	return opts.print(w, newLintReport(idx))
}

func watchCorpus(ctx context.Context, a *app, path string, opts *rootOptions, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	a.logger.Info("watching corpus", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := reloadCorpus(a, target, opts, w); err != nil {
				a.logger.Warn("reload corpus", "path", target, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", "error", err)
		}
	}
}
