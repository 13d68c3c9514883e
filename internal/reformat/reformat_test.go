package reformat

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/keyfmt/internal/types"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandFormatted(t *testing.T) {
	t.Parallel()
	requireShell(t)

	c := NewCommand("sh", []string{"-c", "tr a-z A-Z"}, zap.NewNop())
	res, err := c.Reformat(context.Background(), []byte("int x;\n"))
	require.NoError(t, err)
	assert.Equal(t, StatusFormatted, res.Status)
	assert.Equal(t, "INT X;\n", string(res.Output))
}

func TestCommandUnavailable(t *testing.T) {
	t.Parallel()

	c := NewCommand("keyfmt-no-such-formatter", nil, nil)
	src := []byte("int x;\n")
	res, err := c.Reformat(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.Equal(t, src, res.Output)
}

func TestCommandFailure(t *testing.T) {
	t.Parallel()
	requireShell(t)

	c := NewCommand("sh", []string{"-c", "echo broken >&2; exit 3"}, zap.NewNop())
	_, err := c.Reformat(context.Background(), []byte("int x;\n"))
	require.ErrorIs(t, err, types.ErrReformatFailed)
	assert.Contains(t, err.Error(), "status 3")
	assert.Contains(t, err.Error(), "broken")
}

func TestNew(t *testing.T) {
	t.Parallel()

	r := New(types.ReformatterConfig{Enabled: false, Command: "clang-format"}, nil)
	res, err := r.Reformat(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, res.Status)
	assert.Equal(t, "x", string(res.Output))

	r = New(types.ReformatterConfig{Enabled: true, Command: "clang-format", Args: []string{"--style=LLVM"}}, nil)
	c, ok := r.(*Command)
	require.True(t, ok)
	assert.Equal(t, "clang-format", c.Name)
	assert.Equal(t, []string{"--style=LLVM"}, c.Args)
}

func TestFunc(t *testing.T) {
	t.Parallel()

	upper := Func(func(_ context.Context, src []byte) ([]byte, error) {
		return []byte(strings.ToUpper(string(src))), nil
	})
	res, err := upper.Reformat(context.Background(), []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(res.Output))

	failing := Func(func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("boom")
	})
	_, err = failing.Reformat(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrReformatFailed)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "formatted", StatusFormatted.String())
	assert.Equal(t, "unavailable", StatusUnavailable.String())
	assert.Equal(t, "disabled", StatusDisabled.String())
	assert.Equal(t, "unknown", Status(42).String())
}
