package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/zhuyin/pkg/corpus"
	"github.com/japaniel/zhuyin/pkg/custom"
	"github.com/japaniel/zhuyin/pkg/db"
)

// setupEnv points the CLI at the sample corpus and a fresh database.
func setupEnv(t *testing.T) {
	t.Helper()
	fixture, err := filepath.Abs(filepath.Join("..", "..", "pkg", "corpus", "testdata", "sample_corpus.txt"))
	require.NoError(t, err)

	t.Setenv("ZHUYIN_CONFIG", "")
	t.Setenv("ZHUYIN_CORPUS_PATH", fixture)
	t.Setenv("ZHUYIN_DB_PATH", filepath.Join(t.TempDir(), "zhuyin.db"))
	t.Setenv("ZHUYIN_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestCLIMetadata(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "", "metadata", "-o", "json")
	require.NoError(t, err)
	md := decode[corpus.Metadata](t, out)
	assert.Equal(t, []string{"康軒", "翰林"}, md.Publishers)
	assert.Equal(t, []string{"一年級", "二年級"}, md.Grades)
	assert.Equal(t, []string{"第 1 課", "第 2 課", "第 3 課", "第 10 課"}, md.Lessons)

	out, err = runCLI(t, "", "metadata")
	require.NoError(t, err)
	assert.Contains(t, out, "publishers:")
}

func TestCLIItems(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "", "items", "-n", "3", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decode[[]corpus.ExerciseItem](t, out), 3)

	out, err = runCLI(t, "", "items", "-n", "50", "-p", "翰林", "-o", "json")
	require.NoError(t, err)
	items := decode[[]corpus.ExerciseItem](t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "水果", items[0].Text())
	assert.Equal(t, "ㄕㄨㄟˇ", items[0].Targets()[0].Annotation)

	out, err = runCLI(t, "", "items", "-n", "50", "-p", "康軒", "-l", "第 2 課", "-l", "第 10 課", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decode[[]corpus.ExerciseItem](t, out), 4)

	out, err = runCLI(t, "", "items", "-g", "六年級", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, decode[[]corpus.ExerciseItem](t, out))
}

func TestCLIItemsDefaultCountFromConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("ZHUYIN_DEFAULT_COUNT", "2")

	out, err := runCLI(t, "", "items", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decode[[]corpus.ExerciseItem](t, out), 2)
}

func TestCLILint(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "", "lint", "-o", "json")
	require.NoError(t, err)
	report := decode[lintReport](t, out)
	assert.Equal(t, 7, report.Items)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, corpus.DroppedSegment, report.Diagnostics[0].Kind)

	_, err = runCLI(t, "", "lint", "--strict")
	require.ErrorIs(t, err, errDiagnostics)
}

func TestCLICustomLifecycle(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "", "custom", "add", "紅", "ㄏㄨㄥˊ", "--post", "色", "-o", "json")
	require.NoError(t, err)
	entries := decode[[]customEntry](t, out)
	require.Len(t, entries, 1)
	assert.Equal(t, "(紅)ㄏㄨㄥˊ色", entries[0].Entry)

	out, err = runCLI(t, "", "metadata", "-o", "json")
	require.NoError(t, err)
	md := decode[corpus.Metadata](t, out)
	assert.Equal(t, corpus.CustomLesson, md.Lessons[0])
	assert.Contains(t, md.Publishers, corpus.CustomPublisher)

	out, err = runCLI(t, "", "items", "-l", corpus.CustomLesson, "-o", "json")
	require.NoError(t, err)
	items := decode[[]corpus.ExerciseItem](t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "紅色", items[0].Text())

	out, err = runCLI(t, "藍(ㄌㄢˊ)天；(白)ㄅㄞˊ雲\n", "custom", "import", "-", "-o", "json")
	require.NoError(t, err)
	res := decode[importResult](t, out)
	assert.Equal(t, importResult{Kind: "text", Origin: "stdin", Added: 2, Total: 3}, res)

	out, err = runCLI(t, "", "custom", "remove", "0", "-o", "json")
	require.NoError(t, err)
	entries = decode[[]customEntry](t, out)
	require.Len(t, entries, 2)
	assert.Equal(t, customEntry{Index: 0, Entry: "(藍)ㄌㄢˊ天"}, entries[0])

	_, err = runCLI(t, "", "custom", "remove", "9")
	require.ErrorIs(t, err, custom.ErrIndexOutOfRange)
	_, err = runCLI(t, "", "custom", "remove", "first")
	require.Error(t, err)
	_, err = runCLI(t, "", "custom", "add", "紅", "hong")
	require.ErrorIs(t, err, custom.ErrInvalidEntry)

	out, err = runCLI(t, "", "custom", "history", "-o", "json")
	require.NoError(t, err)
	history := decode[[]db.Import](t, out)
	require.Len(t, history, 1)
	assert.Equal(t, "stdin", history[0].Origin)
	assert.Equal(t, 2, history[0].Entries)

	out, err = runCLI(t, "", "custom", "clear", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, decode[[]customEntry](t, out))

	out, err = runCLI(t, "", "metadata", "-o", "json")
	require.NoError(t, err)
	assert.NotContains(t, decode[corpus.Metadata](t, out).Lessons, corpus.CustomLesson)
}

func TestCLICustomImportReplace(t *testing.T) {
	setupEnv(t)
	file := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(file, []byte("(天)ㄊㄧㄢ空\n(雲)ㄩㄣˊ朵\n"), 0o644))

	_, err := runCLI(t, "", "custom", "add", "紅", "ㄏㄨㄥˊ")
	require.NoError(t, err)

	out, err := runCLI(t, "", "custom", "import", file, "--replace", "-o", "json")
	require.NoError(t, err)
	res := decode[importResult](t, out)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 2, res.Total)

	_, err = runCLI(t, "", "custom", "import", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestCLICustomImportHTML(t *testing.T) {
	setupEnv(t)
	page := filepath.Join("..", "..", "pkg", "htmlimport", "testdata", "lesson.html")

	out, err := runCLI(t, "", "custom", "import-html", page, "-o", "json")
	require.NoError(t, err)
	results := decode[[]importResult](t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "html", results[0].Kind)
	assert.Equal(t, page, results[0].Origin)
	assert.Positive(t, results[0].Added)

	out, err = runCLI(t, "", "custom", "list", "-o", "json")
	require.NoError(t, err)
	var found bool
	for _, e := range decode[[]customEntry](t, out) {
		if e.Entry == "我愛(小)ㄒㄧㄠˇ狗" {
			found = true
		}
	}
	assert.True(t, found, out)

	out, err = runCLI(t, "", "custom", "import-html", page, filepath.Join(t.TempDir(), "missing.html"), "-o", "json")
	require.Error(t, err)
	assert.Len(t, decode[[]importResult](t, out), 1)

	out, err = runCLI(t, "", "custom", "history", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decode[[]db.Import](t, out), 2)
}

func TestCLIRejectsUnknownOutput(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "", "metadata", "-o", "xml")
	require.Error(t, err)
}

func TestCLIWatchNeedsCorpusPath(t *testing.T) {
	setupEnv(t)
	t.Setenv("ZHUYIN_CORPUS_PATH", "")
	_, err := runCLI(t, "", "watch")
	require.Error(t, err)
}

func TestReloadCorpus(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("【南一】\n三年級\n•\t第 4 課: (風)ㄈㄥ箏"), 0o644))

	opts := &rootOptions{outputFormat: "json"}
	cmd := &cobra.Command{}
	cmd.SetErr(io.Discard)
	a, err := opts.openApp(cmd)
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	require.NoError(t, reloadCorpus(a, path, opts, &out))
	assert.Equal(t, 1, decode[lintReport](t, out.String()).Items)

	require.NoError(t, os.WriteFile(path, []byte("【南一】\n三年級\n•\t第 4 課: (風)ㄈㄥ箏、壞掉"), 0o644))
	out.Reset()
	require.NoError(t, reloadCorpus(a, path, opts, &out))
	report := decode[lintReport](t, out.String())
	assert.Equal(t, 1, report.Items)
	assert.Len(t, report.Diagnostics, 1)

	md, err := a.svc.Metadata()
	require.NoError(t, err)
	assert.Equal(t, []string{"南一"}, md.Publishers)
}

func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "zhuyin 0.2.0")
}
