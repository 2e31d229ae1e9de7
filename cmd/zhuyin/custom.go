package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/zhuyin/pkg/db"
	"github.com/japaniel/zhuyin/pkg/htmlimport"
)

// customEntry is one stored entry with its position for `custom remove`.
type customEntry struct {
	Index int    `json:"index" yaml:"index"`
	Entry string `json:"entry" yaml:"entry"`
}

type importResult struct {
	Kind   string `json:"kind" yaml:"kind"`
	Origin string `json:"origin" yaml:"origin"`
	Added  int    `json:"added" yaml:"added"`
	Total  int    `json:"total" yaml:"total"`
}

func newCustomCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage custom vocabulary",
		Long: `Custom entries are indexed under 自訂題庫 / 自訂等級 / 我的練習.

Examples:
  zhuyin custom list
  zhuyin custom add 紅 ㄏㄨㄥˊ --post 色
  zhuyin custom import words.txt        # one entry per line, ; or 、
  zhuyin custom import-html lesson.html # harvest <ruby> annotations
  zhuyin custom remove 0`,
	}
	cmd.AddCommand(
		newCustomListCmd(opts),
		newCustomAddCmd(opts),
		newCustomRemoveCmd(opts),
		newCustomImportCmd(opts),
		newCustomImportHTMLCmd(opts),
		newCustomClearCmd(opts),
		newCustomHistoryCmd(opts),
	)
	return cmd
}

func printEntries(opts *rootOptions, cmd *cobra.Command, a *app) error {
	items, err := a.store.Items()
	if err != nil {
		return err
	}
	out := make([]customEntry, len(items))
	for i, e := range items {
		out[i] = customEntry{Index: i, Entry: e}
	}
	return opts.print(cmd.OutOrStdout(), out)
}

func newCustomListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return printEntries(opts, cmd, a)
		},
	}
}

func newCustomAddCmd(opts *rootOptions) *cobra.Command {
	var pre, post string
	cmd := &cobra.Command{
		Use:   "add <glyph> <zhuyin>",
		Short: "Add one entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Add(pre, args[0], args[1], post); err != nil {
				return err
			}
			a.logger.Info("custom entry added", "glyph", args[0], "annotation", args[1])
			return printEntries(opts, cmd, a)
		},
	}
	cmd.Flags().StringVar(&pre, "pre", "", "context shown before the glyph")
	cmd.Flags().StringVar(&post, "post", "", "context shown after the annotation")
	return cmd
}

func newCustomRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove the entry at index (see custom list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Remove(index); err != nil {
				return err
			}
			a.logger.Info("custom entry removed", "index", index)
			return printEntries(opts, cmd, a)
		},
	}
}

func newCustomImportCmd(opts *rootOptions) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import entries from a text file or stdin",
		Long: `Import entries separated by newlines, semicolons or 、. Entries written
as 紅(ㄏㄨㄥˊ)色 are normalized to (紅)ㄏㄨㄥˊ色. Use --replace to discard
the existing entries first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, origin, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var n int
			if replace {
				n, err = a.store.SaveFromText(raw)
			} else {
				n, err = a.store.AppendText(raw)
			}
			if err != nil {
				return err
			}
			res, err := recordImport(a, "text", origin, n)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace existing entries instead of appending")
	return cmd
}

func newCustomImportHTMLCmd(opts *rootOptions) *cobra.Command {
	var window, workers int
	cmd := &cobra.Command{
		Use:   "import-html <file>...",
		Short: "Harvest ruby-annotated words from saved lesson pages",
		Long: `Extract the article text of each saved page, convert <ruby> Zhuyin
annotations and append one entry per annotated glyph. Pages are processed
concurrently; a page that fails is reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			pages := htmlimport.HarvestFiles(cmd.Context(), args, window, workers)
			results := make([]importResult, 0, len(pages))
			var failed int
			for _, p := range pages {
				if p.Err != nil {
					failed++
					a.logger.Warn("page skipped", "path", p.Path, "error", p.Err)
					continue
				}
				a.logger.Info("page extracted", "path", p.Path, "title", p.Title, "entries", len(p.Entries))
				n, err := a.store.AppendText(strings.Join(p.Entries, "\n"))
				if err != nil {
					return err
				}
				res, err := recordImport(a, "html", p.Path, n)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			if err := opts.print(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pages failed", failed, len(pages))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&window, "window", htmlimport.DefaultWindow, "context characters kept on each side")
	cmd.Flags().IntVar(&workers, "workers", 4, "pages processed concurrently")
	return cmd
}

func recordImport(a *app, kind, origin string, n int) (importResult, error) {
	if _, err := db.RecordImport(a.conn, kind, origin, n); err != nil {
		return importResult{}, err
	}
	items, err := a.store.Items()
	if err != nil {
		return importResult{}, err
	}
	a.logger.Info("custom entries imported", "kind", kind, "origin", origin, "added", n)
	return importResult{Kind: kind, Origin: origin, Added: n, Total: len(items)}, nil
}

func readInput(cmd *cobra.Command, name string) (string, string, error) {
	if name == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), "stdin", nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), name, nil
}

func newCustomClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every custom entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Clear(); err != nil {
				return err
			}
			return printEntries(opts, cmd, a)
		},
	}
}

func newCustomHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			imports, err := db.ListImports(a.conn, limit)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), imports)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records, 0 for all")
	return cmd
}
