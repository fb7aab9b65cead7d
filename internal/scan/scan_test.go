package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/internal/assemble"
	"notecal/internal/model"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(expr string, now time.Time) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, expr, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unparseable expression")
}

func testOpts() Options {
	return Options{
		EventTags: []string{"#event", "#todo"},
		Assemble: assemble.Options{
			Now:      time.Date(2024, time.March, 15, 14, 30, 0, 0, time.Local),
			Resolver: fakeResolver{},
		},
	}
}

func TestFileExtractsEvents(t *testing.T) {
	lines := []string{
		"# Daily notes",
		"",
		"- [x] #todo {due=2024-05-06} water plants | back garden",
		"plain line without markers",
		"#event {start=\"2024-01-01 09:00\" end=\"2024-01-01 10:30\"} standup",
	}

	events := File("notes/daily.md", lines, testOpts())
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "water plants", first.Title)
	assert.Equal(t, "back garden", first.Description)
	assert.True(t, first.Done)
	assert.True(t, first.AllDay)
	assert.Equal(t, model.Origin{Source: "notes/daily.md", Line: 3}, first.Origin)

	second := events[1]
	assert.Equal(t, "standup", second.Title)
	assert.Equal(t, model.Origin{Source: "notes/daily.md", Line: 5}, second.Origin)
	require.NotNil(t, second.Duration)
	assert.Equal(t, 90*time.Minute, *second.Duration)
}

func TestFileSkipsIneligibleTags(t *testing.T) {
	lines := []string{
		"#misc not an event tag #todoish either",
	}
	events := File("x.md", lines, testOpts())
	assert.Empty(t, events)
}

func TestFileFindsEligibleTagAfterIneligibleOne(t *testing.T) {
	lines := []string{
		"#misc chatter #todo the real one | details",
	}

	events := File("x.md", lines, testOpts())
	require.Len(t, events, 1)
	assert.Equal(t, "#todo", events[0].Tag)
	assert.Equal(t, "the real one", events[0].Title)
}

func TestFileSkipsMalformedLineAndContinues(t *testing.T) {
	lines := []string{
		"#todo {bad metadata here} broken",
		"#todo fine one",
	}

	events := File("x.md", lines, testOpts())
	require.Len(t, events, 1)
	assert.Equal(t, "fine one", events[0].Title)
	assert.Equal(t, 2, events[0].Origin.Line)
}

func TestFileContinuationReadsForward(t *testing.T) {
	lines := []string{
		"#todo fix the gate |",
		"    first detail",
		"    second detail",
		"",
		"#todo unrelated later",
	}

	events := File("x.md", lines, testOpts())
	require.Len(t, events, 2)
	assert.Equal(t, "first detail  \nsecond detail", events[0].Description)
}

func TestGlobTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("#todo alpha\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("#todo beta\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("#todo ignored by glob\n"), 0o600))

	events, err := Glob(filepath.Join(dir, "*.md"), os.ReadFile, testOpts())
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestGlobPathExcludes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.md"), []byte("#todo kept\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.md"), []byte("#todo skipped\n"), 0o600))

	opts := testOpts()
	opts.PathExcludes = []string{"skip.*"}

	events, err := Glob(filepath.Join(dir, "*.md"), os.ReadFile, opts)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "kept", events[0].Title)
}

func TestGlobNoMatchesIsFatal(t *testing.T) {
	_, err := Glob(filepath.Join(t.TempDir(), "*.md"), os.ReadFile, testOpts())
	assert.Error(t, err)
}

func TestGlobSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.md"), []byte("#todo good\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("unused"), 0o600))

	read := func(path string) ([]byte, error) {
		if filepath.Base(path) == "bad.md" {
			return nil, errors.New("permission denied")
		}
		return os.ReadFile(path)
	}

	events, err := Glob(filepath.Join(dir, "*.md"), read, testOpts())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "good", events[0].Title)
}

func TestGlobSkipsInvalidEncoding(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.md"), []byte{0xff, 0xfe, '#'}, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.md"), []byte("#todo ok\n"), 0o600))

	events, err := Glob(filepath.Join(dir, "*.md"), os.ReadFile, testOpts())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
