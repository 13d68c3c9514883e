package format

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/keyfmt/internal/cache"
	"github.com/gnolang/keyfmt/internal/types"
)

type mockFormatEngine struct {
	mock.Mock
}

func (m *mockFormatEngine) Render(ctx context.Context, src []byte) ([]byte, error) {
	args := m.Called(string(src))
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "keymap.c", "before")

	engine := new(mockFormatEngine)
	engine.On("Render", "before").Return([]byte("after"), nil)

	res, err := ProcessFile(context.Background(), engine, path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, "before", string(res.Before))
	assert.Equal(t, "after", string(res.After))
	assert.True(t, res.Changed())
	engine.AssertExpectations(t)
}

func TestProcessFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	engine := new(mockFormatEngine)

	_, err := ProcessFile(context.Background(), engine, filepath.Join(dir, "missing.c"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, dir, "bad.c", "bad")
	engine.On("Render", "bad").Return(nil, types.ErrNestedInvocation)
	_, err = ProcessFile(context.Background(), engine, path)
	assert.ErrorIs(t, err, types.ErrNestedInvocation)
	assert.Contains(t, err.Error(), path)
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var paths []string
	for i := 0; i < 4; i++ {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("kb%d/keymap.c", i), fmt.Sprintf("src%d", i)))
	}
	writeFile(t, dir, "README.md", "not a keymap")

	engine := new(mockFormatEngine)
	for i := range paths {
		engine.On("Render", fmt.Sprintf("src%d", i)).Return([]byte(fmt.Sprintf("out%d", i)), nil)
	}

	logger, _ := zap.NewProduction()
	results, err := ProcessPath(context.Background(), logger, engine, dir, []string{".c", ".h"}, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, res := range results {
		assert.Equal(t, paths[i], res.Path)
		assert.Equal(t, fmt.Sprintf("out%d", i), string(res.After))
	}
	engine.AssertExpectations(t)
}

func TestProcessPathPartialFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.c", "good")
	writeFile(t, dir, "bad.c", "bad")

	engine := new(mockFormatEngine)
	engine.On("Render", "good").Return([]byte("good"), nil)
	engine.On("Render", "bad").Return(nil, types.ErrEmptyGrid)

	results, err := ProcessPath(context.Background(), nil, engine, dir, []string{".c"}, ProcessFile)
	assert.ErrorIs(t, err, types.ErrEmptyGrid)
	require.Len(t, results, 1)
	assert.Equal(t, good, results[0].Path)
	assert.False(t, results[0].Changed())
}

func TestProcessPathCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "keymap.c", "src")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessFiles(ctx, nil, new(mockFormatEngine), []string{dir}, []string{".c"}, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessFilesMissingPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "keymap.c", "src")

	engine := new(mockFormatEngine)
	engine.On("Render", "src").Return([]byte("src"), nil)

	results, err := ProcessFiles(context.Background(), nil, engine,
		[]string{filepath.Join(dir, "nope"), path}, []string{".c"}, ProcessFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].Path)
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"keymap.c", true},
		{"dir/config.h", true},
		{"keymap.json", false},
		{"Makefile", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasDesiredExtension(tt.path, []string{".c", ".h"}))
		})
	}
}

func TestWriteResult(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "keymap.c", "before")
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, WriteResult(Result{Path: path, Before: []byte("before"), After: []byte("after")}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteResultUnchanged(t *testing.T) {
	t.Parallel()

	// Unchanged results never touch the filesystem, even for a missing path.
	err := WriteResult(Result{Path: "/does/not/exist.c", Before: []byte("x"), After: []byte("x")})
	assert.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)

	empty := writeFile(t, dir, "empty.yaml", "")
	cfg, err = LoadConfig(empty)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)

	partial := writeFile(t, dir, "partial.yaml", "name_prefix: LAYOUT_split\ngap_width: 3\n")
	cfg, err = LoadConfig(partial)
	require.NoError(t, err)
	assert.Equal(t, "LAYOUT_split", cfg.NamePrefix)
	assert.Equal(t, 3, cfg.GapWidth)
	assert.Equal(t, types.DefaultConfig().IndentFallback, cfg.IndentFallback)

	unknown := writeFile(t, dir, "unknown.yaml", "bogus: 1\n")
	_, err = LoadConfig(unknown)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)

	invalid := writeFile(t, dir, "invalid.yaml", "gap_width: -1\n")
	_, err = LoadConfig(invalid)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".keyfmt.yaml")
	want := types.DefaultConfig()
	want.AnchorName = "keymaps"
	want.Reformatter.Enabled = true

	require.NoError(t, WriteConfig(path, want))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCachedProcessor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	formatted := writeFile(t, dir, "formatted.c", "same")
	changed := writeFile(t, dir, "changed.c", "old")

	c, err := cache.New(filepath.Join(dir, ".cache"), "fp")
	require.NoError(t, err)

	engine := new(mockFormatEngine)
	engine.On("Render", "same").Return([]byte("same"), nil).Once()
	engine.On("Render", "old").Return([]byte("new"), nil).Twice()

	proc := CachedProcessor(c, ProcessFile)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := proc(ctx, engine, formatted)
		require.NoError(t, err)
		assert.False(t, res.Changed())

		res, err = proc(ctx, engine, changed)
		require.NoError(t, err)
		assert.True(t, res.Changed())
	}
	assert.True(t, c.Fresh(formatted))
	assert.False(t, c.Fresh(changed))
	engine.AssertExpectations(t)
}

func TestCachedProcessorError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "keymap.c", "src")
	c, err := cache.New(filepath.Join(dir, ".cache"), "fp")
	require.NoError(t, err)

	boom := errors.New("boom")
	failing := func(context.Context, FormatEngine, string) (Result, error) {
		return Result{}, boom
	}
	_, err = CachedProcessor(c, failing)(context.Background(), nil, path)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}
