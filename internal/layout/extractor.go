// Package layout locates layout invocations in a parsed document.
package layout

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gnolang/keyfmt/internal/grammar"
	"github.com/gnolang/keyfmt/internal/types"
)

// capture names used by the pattern
const (
	captureID   = "id"
	captureArgs = "args"
	captureCall = "call"
)

const commentNode = "comment"

// Extractor runs a compiled pattern and keeps matches whose identifier
// starts with a recognized prefix.
type Extractor struct {
	query  grammar.Query
	prefix string
}

// NewExtractor compiles pattern with p. The pattern must capture @id, @args
// and @call.
func NewExtractor(p grammar.Provider, pattern, prefix string) (*Extractor, error) {
	q, err := p.Compile(pattern)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool)
	for _, name := range q.CaptureNames() {
		have[name] = true
	}
	for _, name := range []string{captureID, captureArgs, captureCall} {
		if !have[name] {
			q.Close()
			return nil, fmt.Errorf("%w: pattern has no @%s capture", types.ErrInvalidConfig, name)
		}
	}

	return &Extractor{query: q, prefix: prefix}, nil
}

func (e *Extractor) Close() { e.query.Close() }

// Recognized reports whether name denotes a layout invocation.
func (e *Extractor) Recognized(name string) bool {
	return strings.HasPrefix(name, e.prefix)
}

// Matches starts a lazy scan of tree. When region is non-nil only calls
// lying entirely inside it are considered.
func (e *Extractor) Matches(tree grammar.Tree, region *types.Span) *Matches {
	return &Matches{
		e:      e,
		cursor: e.query.Exec(tree),
		src:    tree.Source(),
		region: region,
		last:   -1,
	}
}

// Matches iterates over recognized layout invocations in document order.
//
//	it := extractor.Matches(tree, nil)
//	defer it.Close()
//	for it.Next() {
//		m := it.Match()
//	}
//	if err := it.Err(); err != nil && !errors.Is(err, types.ErrNoMatch) {
//		...
//	}
type Matches struct {
	e      *Extractor
	cursor grammar.Cursor
	src    []byte
	region *types.Span

	cur   types.Match
	count int
	last  int // end byte of the previous recognized call
	err   error
	done  bool
}

// Next advances to the next recognized match.
func (it *Matches) Next() bool {
	if it.done {
		return false
	}
	for {
		qm, ok := it.cursor.Next()
		if !ok {
			it.done = true
			if it.count == 0 {
				it.err = types.ErrNoMatch
			}
			return false
		}

		id, args, call := qm.Capture(captureID), qm.Capture(captureArgs), qm.Capture(captureCall)
		if id == nil || args == nil || call == nil {
			continue
		}
		if it.region != nil && !it.region.Contains(call.Span()) {
			continue
		}

		name, err := id.Text()
		if err != nil {
			return it.fail(err)
		}
		if !it.e.Recognized(name) {
			continue
		}

		callSpan := call.Span()
		if callSpan.StartByte < it.last {
			return it.fail(fmt.Errorf("%w: %s at line %d", types.ErrNestedInvocation, name, callSpan.StartRow+1))
		}

		m, err := it.build(name, id, args, call)
		if err != nil {
			return it.fail(err)
		}

		it.cur = m
		it.count++
		it.last = callSpan.EndByte
		return true
	}
}

func (it *Matches) fail(err error) bool {
	it.err = err
	it.done = true
	return false
}

func (it *Matches) build(name string, id, args, call grammar.Node) (types.Match, error) {
	m := types.Match{
		Name:       name,
		Identifier: id.Span(),
		Arguments:  args.Span(),
		Call:       call.Span(),
		Indent:     lineIndent(it.src, id.Span().StartByte),
	}
	for _, child := range args.NamedChildren() {
		text, err := child.Text()
		if err != nil {
			return types.Match{}, err
		}
		m.Args = append(m.Args, types.Argument{
			Text:    text,
			Span:    child.Span(),
			Comment: child.Type() == commentNode,
		})
	}
	return m, nil
}

// Match returns the current match.
func (it *Matches) Match() types.Match { return it.cur }

// Count returns the number of recognized matches produced so far.
func (it *Matches) Count() int { return it.count }

// Err returns the error that stopped iteration. It is types.ErrNoMatch when
// the scan finished without recognizing anything.
func (it *Matches) Err() error { return it.err }

func (it *Matches) Close() { it.cursor.Close() }

// Collect drains the iterator. ErrNoMatch is returned alongside an empty slice.
func (it *Matches) Collect() ([]types.Match, error) {
	defer it.Close()

	var matches []types.Match
	for it.Next() {
		matches = append(matches, it.Match())
	}
	return matches, it.Err()
}

// lineIndent returns the leading spaces and tabs of the line containing offset.
func lineIndent(src []byte, offset int) string {
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}
