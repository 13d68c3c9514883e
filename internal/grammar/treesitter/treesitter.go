// Package treesitter implements grammar.Provider on top of tree-sitter.
package treesitter

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/gnolang/keyfmt/internal/grammar"
	"github.com/gnolang/keyfmt/internal/types"
)

var languages = map[string]func() *sitter.Language{
	"c":   c.GetLanguage,
	"cpp": cpp.GetLanguage,
}

// Languages returns the names accepted by New, sorted.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provider parses source text with one tree-sitter grammar.
type Provider struct {
	name string
	lang *sitter.Language
}

var _ grammar.Provider = (*Provider)(nil)

// New returns a provider for the named grammar.
func New(language string) (*Provider, error) {
	get, ok := languages[language]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported language %q (want one of %v)", types.ErrInvalidConfig, language, Languages())
	}
	return &Provider{name: language, lang: get()}, nil
}

func (p *Provider) Language() string { return p.name }

// Parse parses src into a tree. A new parser is used per call so a provider
// can be shared between goroutines.
func (p *Provider) Parse(ctx context.Context, src []byte) (grammar.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s source: %w", p.name, err)
	}
	return &Tree{tree: tree, src: src}, nil
}

// Compile compiles a tree-sitter query pattern.
func (p *Provider) Compile(pattern string) (grammar.Query, error) {
	q, err := sitter.NewQuery([]byte(pattern), p.lang)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	count := int(q.CaptureCount())
	names := make([]string, count)
	for i := 0; i < count; i++ {
		names[i] = q.CaptureNameForId(uint32(i))
	}
	return &Query{query: q, names: names}, nil
}

// Tree wraps a tree-sitter tree together with its source.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

func (t *Tree) Root() grammar.Node { return wrap(t.tree.RootNode(), t.src) }
func (t *Tree) Source() []byte     { return t.src }
func (t *Tree) Close()             { t.tree.Close() }

type node struct {
	n   *sitter.Node
	src []byte
}

// wrap keeps a nil *sitter.Node from turning into a non-nil interface.
func wrap(n *sitter.Node, src []byte) grammar.Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return node{n: n, src: src}
}

func (n node) Type() string { return n.n.Type() }

func (n node) Span() types.Span {
	start := n.n.StartPoint()
	return types.Span{
		StartByte: int(n.n.StartByte()),
		EndByte:   int(n.n.EndByte()),
		StartRow:  int(start.Row),
		StartCol:  int(start.Column),
		EndRow:    int(n.n.EndPoint().Row),
	}
}

func (n node) Text() (string, error) {
	b := n.src[n.n.StartByte():n.n.EndByte()]
	if !utf8.Valid(b) {
		start := n.n.StartPoint()
		return "", fmt.Errorf("%w: %s node at %d:%d", types.ErrEncoding, n.n.Type(), start.Row+1, start.Column+1)
	}
	return string(b), nil
}

func (n node) NamedChildren() []grammar.Node {
	count := int(n.n.NamedChildCount())
	children := make([]grammar.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := wrap(n.n.NamedChild(i), n.src); child != nil {
			children = append(children, child)
		}
	}
	return children
}

func (n node) Field(name string) grammar.Node {
	return wrap(n.n.ChildByFieldName(name), n.src)
}

// Query is a compiled tree-sitter query.
type Query struct {
	query *sitter.Query
	names []string
}

func (q *Query) CaptureNames() []string { return q.names }
func (q *Query) Close()                 { q.query.Close() }

// Exec starts evaluating the query over the whole tree.
func (q *Query) Exec(tree grammar.Tree) grammar.Cursor {
	t, ok := tree.(*Tree)
	if !ok {
		panic(fmt.Sprintf("treesitter: foreign tree type %T", tree))
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q.query, t.tree.RootNode())
	return &cursor{qc: qc, q: q, src: t.src}
}

type cursor struct {
	qc  *sitter.QueryCursor
	q   *Query
	src []byte
}

// Next returns the next match whose textual predicates (#match?, #eq?) hold.
func (c *cursor) Next() (grammar.Match, bool) {
	for {
		m, ok := c.qc.NextMatch()
		if !ok {
			return grammar.Match{}, false
		}
		m = c.qc.FilterPredicates(m, c.src)
		if len(m.Captures) == 0 {
			continue
		}

		captures := make(map[string][]grammar.Node, len(m.Captures))
		for _, capture := range m.Captures {
			name := c.q.captureName(capture.Index)
			if n := wrap(capture.Node, c.src); n != nil {
				captures[name] = append(captures[name], n)
			}
		}
		return grammar.NewMatch(captures), true
	}
}

func (c *cursor) Close() { c.qc.Close() }

func (q *Query) captureName(index uint32) string {
	if int(index) >= len(q.names) {
		return fmt.Sprintf("capture_%d", index)
	}
	return q.names[index]
}
