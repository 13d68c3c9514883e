package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/keyfmt/internal/grammar"
	"github.com/gnolang/keyfmt/internal/grammar/treesitter"
	"github.com/gnolang/keyfmt/internal/types"
)

const keymap = `#include QMK_KEYBOARD_H

const uint16_t keymaps[][2][3] = {
    [0] = LAYOUT_split(
        KC_A, KC_B, LT(1, KC_C),
        KC_D,   KC_E
    ),
    [1] = OTHER(KC_F)
};
`

func parse(t *testing.T, src string) (grammar.Provider, grammar.Tree) {
	t.Helper()
	p, err := treesitter.New("c")
	require.NoError(t, err)
	tree, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return p, tree
}

func newExtractor(t *testing.T, p grammar.Provider) *Extractor {
	t.Helper()
	e, err := NewExtractor(p, types.DefaultPattern, "LAYOUT")
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestExtractorKeepsRecognizedMatches(t *testing.T) {
	t.Parallel()

	p, tree := parse(t, keymap)
	e := newExtractor(t, p)

	matches, err := e.Matches(tree, nil).Collect()
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "LAYOUT_split", m.Name)
	assert.Equal(t, "    ", m.Indent)
	assert.Equal(t, 3, m.Call.StartRow)
	assert.Equal(t, "(", keymap[m.Arguments.StartByte:m.Arguments.StartByte+1])
	assert.Equal(t, ")", keymap[m.Arguments.EndByte-1:m.Arguments.EndByte])
	assert.Equal(t, m.Call.EndByte, m.Arguments.EndByte)

	var texts []string
	var rows []int
	for _, arg := range m.Args {
		texts = append(texts, arg.Text)
		rows = append(rows, arg.Span.StartRow)
		assert.False(t, arg.Comment)
	}
	assert.Equal(t, []string{"KC_A", "KC_B", "LT(1, KC_C)", "KC_D", "KC_E"}, texts)
	assert.Equal(t, []int{4, 4, 4, 5, 5}, rows)
}

func TestExtractorNoMatch(t *testing.T) {
	t.Parallel()

	p, tree := parse(t, "int x = foo(A, B);\n")
	e := newExtractor(t, p)

	it := e.Matches(tree, nil)
	matches, err := it.Collect()
	assert.ErrorIs(t, err, types.ErrNoMatch)
	assert.Empty(t, matches)
	assert.Equal(t, 0, it.Count())
}

func TestExtractorComments(t *testing.T) {
	t.Parallel()

	p, tree := parse(t, "int x = LAYOUT(A, /* home */ B);\n")
	e := newExtractor(t, p)

	matches, err := e.Matches(tree, nil).Collect()
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Len(t, matches[0].Args, 3)
	assert.Equal(t, "/* home */", matches[0].Args[1].Text)
	assert.True(t, matches[0].Args[1].Comment)
	assert.Equal(t, "", matches[0].Indent)
}

func TestExtractorNested(t *testing.T) {
	t.Parallel()

	p, tree := parse(t, "int x = LAYOUT(A, LAYOUT_inner(B));\n")
	e := newExtractor(t, p)

	_, err := e.Matches(tree, nil).Collect()
	assert.ErrorIs(t, err, types.ErrNestedInvocation)
}

func TestExtractorRegion(t *testing.T) {
	t.Parallel()

	src := "int a = LAYOUT_a(A);\nint b = LAYOUT_b(B);\n"
	p, tree := parse(t, src)
	e := newExtractor(t, p)

	region, err := LocateAnchor(tree, "b")
	require.NoError(t, err)

	matches, err := e.Matches(tree, &region).Collect()
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "LAYOUT_b", matches[0].Name)
}

func TestExtractorDocumentOrder(t *testing.T) {
	t.Parallel()

	src := "int a = LAYOUT_a(A);\nint b = skip(B);\nint c = LAYOUT_c(C);\nint d = LAYOUT_d(D);\n"
	p, tree := parse(t, src)
	e := newExtractor(t, p)

	matches, err := e.Matches(tree, nil).Collect()
	require.NoError(t, err)

	var names []string
	for _, m := range matches {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"LAYOUT_a", "LAYOUT_c", "LAYOUT_d"}, names)
}

func TestNewExtractorMissingCapture(t *testing.T) {
	t.Parallel()

	p, err := treesitter.New("c")
	require.NoError(t, err)

	_, err = NewExtractor(p, "(call_expression function: (identifier) @id) @call", "LAYOUT")
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestLineIndent(t *testing.T) {
	t.Parallel()

	src := []byte("a\n\t  [0] = LAYOUT(\nb")
	assert.Equal(t, "\t  ", lineIndent(src, 12))
	assert.Equal(t, "", lineIndent(src, 0))
}
