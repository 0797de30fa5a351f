package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/talondoc/internal/lang"
)

// Sentinel identifiers recognized in extension modules.
const (
	moduleVar  = "mod"
	contextVar = "ctx"
	actionsVar = "actions"
	userScope  = "user"
)

// Decorator markers.
const (
	markerActionClass = "action_class"
	markerCapture     = "capture"
)

// DecoratorMatch is a decorator recognized as a declaration or override
// marker.
type DecoratorMatch struct {
	Marker   string
	Scope    string
	Override bool
}

// MatchDecorator classifies the expression of a decorator node (or the
// expression itself) against marker:
//
//	@mod.<marker>           declares in the "user" scope
//	@ctx.<marker>("scope")  overrides in the given scope
//
// Any other shape does not match.
func MatchDecorator(node *sitter.Node, marker string, source []byte) (DecoratorMatch, bool) {
	if node == nil {
		return DecoratorMatch{}, false
	}
	if node.Type() == "decorator" {
		if node.NamedChildCount() == 0 {
			return DecoratorMatch{}, false
		}
		node = node.NamedChild(0)
	}

	switch node.Type() {
	case "attribute":
		if isMember(node, moduleVar, marker, source) {
			return DecoratorMatch{Marker: marker, Scope: userScope}, true
		}
	case "call":
		if !isMember(node.ChildByFieldName("function"), contextVar, marker, source) {
			break
		}
		args := positionalArgs(node.ChildByFieldName("arguments"))
		if len(args) != 1 {
			break
		}
		if scope, ok := lang.StringLiteral(args[0], source); ok {
			return DecoratorMatch{Marker: marker, Scope: scope, Override: true}, true
		}
	}
	return DecoratorMatch{}, false
}

// isMember reports whether node is exactly `object.attr`.
func isMember(node *sitter.Node, object, attr string, source []byte) bool {
	if node == nil || node.Type() != "attribute" {
		return false
	}
	obj := node.ChildByFieldName("object")
	name := node.ChildByFieldName("attribute")
	if obj == nil || name == nil || obj.Type() != "identifier" {
		return false
	}
	return lang.NodeText(obj, source) == object && lang.NodeText(name, source) == attr
}

// matchFirst returns the first decorator in decorators matching marker.
func matchFirst(decorators []*sitter.Node, marker string, source []byte) (DecoratorMatch, bool) {
	for _, d := range decorators {
		if m, ok := MatchDecorator(d, marker, source); ok {
			return m, true
		}
	}
	return DecoratorMatch{}, false
}
