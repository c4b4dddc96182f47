package engine_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/recsum/internal/engine"
	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/hasher"
)

// runToBuffer executes a run with output captured in a buffer.
func runToBuffer(t *testing.T, cfg engine.Config) (engine.Result, []string) {
	t.Helper()

	var buf bytes.Buffer
	cfg.Output = &buf
	res := engine.Run(context.Background(), cfg)

	out := buf.String()
	if out == "" {
		return res, nil
	}
	return res, strings.Split(strings.TrimRight(out, "\n"), "\n")
}

func digestOf(t *testing.T, path string) string {
	t.Helper()
	d, _, err := hasher.Blake3.HashFile(path)
	require.NoError(t, err)
	return d
}

func TestRun_DirectoryWalkOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("beta"), 0o644))

	res, lines := runToBuffer(t, engine.Config{Inputs: []string{root}, Workers: 4})
	require.NoError(t, res.Err)
	require.Len(t, lines, 2)

	aPath := filepath.Join(root, "a.txt")
	bPath := filepath.Join(root, "sub", "b.txt")
	assert.Equal(t, aPath+"\t"+digestOf(t, aPath), lines[0])
	assert.Equal(t, bPath+"\t"+digestOf(t, bPath), lines[1])
	assert.Equal(t, uint64(2), res.Emitted)
	assert.Zero(t, res.Unprocessed)
}

func TestRun_ExplicitListOrderWithSlowMiddle(t *testing.T) {
	dir := t.TempDir()
	x := filepath.Join(dir, "x")
	y := filepath.Join(dir, "y")
	z := filepath.Join(dir, "z")

	// y is much larger than its neighbors, so with parallel workers it
	// finishes last; output order must still be x, y, z.
	require.NoError(t, os.WriteFile(x, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(y, bytes.Repeat([]byte("Y"), 8*1024*1024), 0o644))
	require.NoError(t, os.WriteFile(z, []byte("z"), 0o644))

	res, lines := runToBuffer(t, engine.Config{Inputs: []string{x, y, z}, Workers: 3})
	require.NoError(t, res.Err)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], x+"\t"))
	assert.True(t, strings.HasPrefix(lines[1], y+"\t"))
	assert.True(t, strings.HasPrefix(lines[2], z+"\t"))
}

func TestRun_StdinWithUnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root, cannot test permission denied")
	}

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o000))
	require.NoError(t, os.WriteFile(c, []byte("c"), 0o644))

	res, lines := runToBuffer(t, engine.Config{
		Inputs:  []string{"-"},
		Stdin:   strings.NewReader(a + "\n" + b + "\n" + c + "\n"),
		Workers: 1,
	})
	require.NoError(t, res.Err, "per-file errors must not fail the run")
	require.Len(t, lines, 3)

	assert.Equal(t, a+"\t"+digestOf(t, a), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], b+"\t<ERROR: "), "line: %s", lines[1])
	assert.Equal(t, c+"\t"+digestOf(t, c), lines[2])
	assert.Equal(t, int64(1), res.Stats.FilesFailed)
}

func TestRun_SingleWorkerMatchesParallel(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 8; i++ {
		dir := filepath.Join(root, fmt.Sprintf("d%d", i))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for j := 0; j < 8; j++ {
			content := []byte(fmt.Sprintf("content %d/%d", i, j))
			require.NoError(t, os.WriteFile(
				filepath.Join(dir, fmt.Sprintf("f%d", j)), content, 0o644))
		}
	}

	resSeq, linesSeq := runToBuffer(t, engine.Config{Inputs: []string{root}, Workers: 1})
	require.NoError(t, resSeq.Err)

	resPar, linesPar := runToBuffer(t, engine.Config{Inputs: []string{root}, Workers: 8})
	require.NoError(t, resPar.Err)

	assert.Equal(t, linesSeq, linesPar)
	assert.Equal(t, resSeq.Emitted, resPar.Emitted)
}

func TestRun_AtMostOnce(t *testing.T) {
	root := t.TempDir()
	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, os.WriteFile(
			filepath.Join(root, fmt.Sprintf("f%03d", i)), []byte{byte(i)}, 0o644))
	}

	res, lines := runToBuffer(t, engine.Config{Inputs: []string{root}, Workers: 16})
	require.NoError(t, res.Err)
	require.Len(t, lines, n)

	seen := make(map[string]bool, n)
	for _, line := range lines {
		path, _, ok := strings.Cut(line, "\t")
		require.True(t, ok)
		assert.False(t, seen[path], "duplicate record for %s", path)
		seen[path] = true
	}
}

func TestRun_MissingRootFatal(t *testing.T) {
	res, lines := runToBuffer(t, engine.Config{Inputs: []string{"/nonexistent/tree"}})
	require.Error(t, res.Err)
	assert.Empty(t, lines)
}

func TestRun_NoInputFatal(t *testing.T) {
	res, _ := runToBuffer(t, engine.Config{})
	require.Error(t, res.Err)
}

func TestRun_MissingFileInListInline(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	missing := filepath.Join(dir, "gone")

	res, lines := runToBuffer(t, engine.Config{Inputs: []string{a, missing}, Workers: 2})
	require.NoError(t, res.Err)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], a+"\t"))
	assert.True(t, strings.HasPrefix(lines[1], missing+"\t<ERROR: "))
}

func TestRun_CompatibleModeFormat(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))

	res, lines := runToBuffer(t, engine.Config{
		Inputs:    []string{a},
		Separator: "  ",
		HashFirst: true,
	})
	require.NoError(t, res.Err)
	require.Len(t, lines, 1)
	assert.Equal(t, digestOf(t, a)+"  "+a, lines[0])
}

func TestRun_DigestLength(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))

	res, lines := runToBuffer(t, engine.Config{Inputs: []string{a}, DigestLength: 12})
	require.NoError(t, res.Err)
	require.Len(t, lines, 1)

	_, digest, ok := strings.Cut(lines[0], "\t")
	require.True(t, ok)
	assert.Len(t, digest, 12)
	assert.True(t, strings.HasPrefix(digestOf(t, a), digest))
}

func TestRun_AlgorithmSelection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("hello"), 0o644))

	res, lines := runToBuffer(t, engine.Config{Inputs: []string{a}, Algorithm: hasher.MD5})
	require.NoError(t, res.Err)
	require.Len(t, lines, 1)

	// md5("hello")
	assert.Equal(t, a+"\t5d41402abc4b2a76b9719d911017c592", lines[0])
}

func TestRun_EmptyDirectory(t *testing.T) {
	res, lines := runToBuffer(t, engine.Config{Inputs: []string{t.TempDir()}})
	require.NoError(t, res.Err)
	assert.Empty(t, lines)
	assert.Zero(t, res.Emitted)
}

func TestRun_EventsDelivered(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	events := make(chan event.Event, 256)
	res, _ := runToBuffer(t, engine.Config{Inputs: []string{root}, Events: events})
	require.NoError(t, res.Err)
	close(events)

	types := make(map[event.Type]int)
	for ev := range events {
		types[ev.Type]++
	}
	assert.Equal(t, 1, types[event.WalkStarted])
	assert.Equal(t, 1, types[event.WalkComplete])
	assert.Equal(t, 1, types[event.FileHashed])
}

func TestRun_BWLimitStillCorrect(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, bytes.Repeat([]byte("A"), 256*1024), 0o644))

	res, lines := runToBuffer(t, engine.Config{
		Inputs:  []string{a},
		BWLimit: 10 * 1024 * 1024,
	})
	require.NoError(t, res.Err)
	require.Len(t, lines, 1)
	assert.Equal(t, a+"\t"+digestOf(t, a), lines[0])
}
