// Package grammar defines the capabilities keyfmt needs from a parser:
// parsing text into a tree, and evaluating declarative structural patterns
// against that tree with named captures.
//
// The engine only talks to these interfaces. The tree-sitter backed
// implementation lives in the treesitter subpackage.
package grammar

import (
	"context"

	"github.com/gnolang/keyfmt/internal/types"
)

// Node is a syntax tree node bound to the source it was parsed from.
type Node interface {
	Type() string
	Span() types.Span
	// Text returns the node's verbatim source slice.
	// It fails with types.ErrEncoding when the bytes are not valid UTF-8.
	Text() (string, error)
	NamedChildren() []Node
	// Field returns the child stored under a grammar field name, or nil.
	Field(name string) Node
}

// Tree is a parsed document.
type Tree interface {
	Root() Node
	Source() []byte
	Close()
}

// Match holds the nodes captured by one pattern match, keyed by capture name.
type Match struct {
	captures map[string][]Node
}

func NewMatch(captures map[string][]Node) Match {
	return Match{captures: captures}
}

// Capture returns the first node captured under name, or nil.
func (m Match) Capture(name string) Node {
	nodes := m.captures[name]
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Cursor iterates over pattern matches in document order.
type Cursor interface {
	Next() (Match, bool)
	Close()
}

// Query is a compiled structural pattern.
type Query interface {
	Exec(tree Tree) Cursor
	CaptureNames() []string
	Close()
}

// Provider parses documents and compiles patterns for one grammar.
type Provider interface {
	Language() string
	Parse(ctx context.Context, src []byte) (Tree, error)
	Compile(pattern string) (Query, error)
}
