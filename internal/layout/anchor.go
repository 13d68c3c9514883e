package layout

import (
	"fmt"

	"github.com/gnolang/keyfmt/internal/grammar"
	"github.com/gnolang/keyfmt/internal/types"
)

const (
	declarationNode = "declaration"
	identifierNode  = "identifier"
	declaratorField = "declarator"
)

// LocateAnchor returns the span of the single top-level declaration whose
// innermost declarator identifier is name, e.g. `keymaps` in
//
//	const uint16_t keymaps[][MATRIX_ROWS][MATRIX_COLS] = { ... };
//
// Zero or several candidates fail with types.ErrAnchorNotFound.
func LocateAnchor(tree grammar.Tree, name string) (types.Span, error) {
	var found []types.Span
	for _, decl := range tree.Root().NamedChildren() {
		if decl.Type() != declarationNode {
			continue
		}
		id := innermostIdentifier(decl)
		if id == nil {
			continue
		}
		text, err := id.Text()
		if err != nil {
			return types.Span{}, err
		}
		if text == name {
			found = append(found, decl.Span())
		}
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return types.Span{}, fmt.Errorf("%w: no declaration named %q", types.ErrAnchorNotFound, name)
	default:
		return types.Span{}, fmt.Errorf("%w: %d declarations named %q", types.ErrAnchorNotFound, len(found), name)
	}
}

// innermostIdentifier follows the declarator chain
// (init_declarator -> array_declarator -> ... -> identifier).
func innermostIdentifier(n grammar.Node) grammar.Node {
	cur := n.Field(declaratorField)
	for cur != nil {
		if cur.Type() == identifierNode {
			return cur
		}
		cur = cur.Field(declaratorField)
	}
	return nil
}
