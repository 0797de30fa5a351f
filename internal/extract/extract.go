// Package extract reads the declarations, overrides and uses of talon
// symbols (actions, lists, tags and captures) out of python extension
// modules.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/talondoc/internal/lang"
	"github.com/phobologic/talondoc/internal/model"
)

// Extractor walks python syntax trees. It holds no per-file state and is safe
// for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// New returns an Extractor reporting diagnostics to logger.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

// File parses source with parser and extracts its FileInfo.
// path is used for Declaration.File and should be relative to the package root.
// Syntax errors are tolerated; only a failed parse is returned as an error.
func (e *Extractor) File(ctx context.Context, parser *sitter.Parser, source []byte, path string) (*model.FileInfo, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		e.logger.Warn("syntax errors in extension module, extracting what parsed", "file", path)
	}
	return e.Tree(root, source, path), nil
}

// Tree extracts a FileInfo from an already parsed module.
func (e *Extractor) Tree(root *sitter.Node, source []byte, path string) *model.FileInfo {
	v := &visitor{
		source: source,
		path:   path,
		info:   model.NewFileInfo(path, lang.Python),
		logger: e.logger,
	}
	v.visit(root, nil)
	return v.info
}

// actionClass is the scope of the action class whose body is being visited.
// A nil *actionClass means no action class is active.
type actionClass struct {
	scope    string
	override bool
}

type visitor struct {
	source []byte
	path   string
	info   *model.FileInfo
	logger *slog.Logger
}

func (v *visitor) visit(node *sitter.Node, cls *actionClass) {
	switch node.Type() {
	case "decorated_definition":
		var decorators []*sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "decorator" {
				decorators = append(decorators, child)
				v.visitChildren(child, cls)
			}
		}
		if def := node.ChildByFieldName("definition"); def != nil {
			v.definition(def, decorators, cls)
		}
		return
	case "class_definition", "function_definition":
		v.definition(node, nil, cls)
		return
	case "call":
		v.call(node)
	case "subscript":
		v.subscript(node)
	}
	v.visitChildren(node, cls)
}

func (v *visitor) visitChildren(node *sitter.Node, cls *actionClass) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		v.visit(node.NamedChild(i), cls)
	}
}

func (v *visitor) definition(def *sitter.Node, decorators []*sitter.Node, cls *actionClass) {
	switch def.Type() {
	case "class_definition":
		var inner *actionClass
		if m, ok := matchFirst(decorators, markerActionClass, v.source); ok {
			inner = &actionClass{scope: m.Scope, override: m.Override}
		}
		body := def.ChildByFieldName("body")
		for i := 0; i < int(def.NamedChildCount()); i++ {
			child := def.NamedChild(i)
			if body != nil && child.Equal(body) {
				v.visit(child, inner)
			} else {
				v.visit(child, cls)
			}
		}
		return

	case "function_definition":
		if nameNode := def.ChildByFieldName("name"); nameNode != nil {
			name := lang.NodeText(nameNode, v.source)
			if cls != nil {
				v.declareDef(def, model.Action, cls.scope+"."+name, cls.override)
			} else if m, ok := matchFirst(decorators, markerCapture, v.source); ok {
				v.declareDef(def, model.Capture, m.Scope+"."+name, m.Override)
			}
		}
		// Only direct methods of an action class are actions.
		v.visitChildren(def, nil)
		return
	}
	v.visit(def, cls)
}

func (v *visitor) declareDef(def *sitter.Node, kind model.Kind, name string, override bool) {
	desc, _ := lang.Docstring(def, v.source)
	v.info.Declare(model.Declaration{
		Name:     name,
		Kind:     kind,
		File:     v.path,
		Override: override,
		Desc:     desc,
		Source:   lang.SpanOf(def, v.path),
	})
}

func (v *visitor) call(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	path, ok := dottedPath(fn, v.source)
	if !ok {
		v.unresolved(call, fn)
		return
	}

	// actions.user.go_home()
	if path[0] == actionsVar {
		if len(path) > 1 {
			v.info.Use(model.Action, strings.Join(path[1:], "."))
		}
		return
	}

	// mod.list("name", "desc") and mod.tag("name", "desc")
	if len(path) != 2 || path[0] != moduleVar {
		return
	}
	var kind model.Kind
	switch path[1] {
	case "list":
		kind = model.List
	case "tag":
		kind = model.Tag
	default:
		return
	}

	args := call.ChildByFieldName("arguments")
	positional := positionalArgs(args)
	if len(positional) == 0 {
		return
	}
	name, ok := lang.StringLiteral(positional[0], v.source)
	if !ok {
		v.logger.Debug("non-literal symbol name",
			"file", v.path,
			"line", int(call.StartPoint().Row)+1,
			"expr", lang.NodeText(call, v.source))
		return
	}
	var desc string
	if len(positional) > 1 {
		desc, _ = lang.StringLiteral(positional[1], v.source)
	} else if kw := keywordArg(args, "desc", v.source); kw != nil {
		desc, _ = lang.StringLiteral(kw, v.source)
	}

	v.info.Declare(model.Declaration{
		Name:   name,
		Kind:   kind,
		File:   v.path,
		Desc:   desc,
		Source: lang.SpanOf(call, v.path),
	})
}

func (v *visitor) subscript(sub *sitter.Node) {
	base := sub.ChildByFieldName("value")
	path, ok := dottedPath(base, v.source)
	if !ok {
		v.unresolved(sub, base)
		return
	}

	// ctx.lists["name"]
	if len(path) != 2 || path[0] != contextVar || path[1] != "lists" {
		return
	}
	name, ok := lang.StringLiteral(sub.ChildByFieldName("subscript"), v.source)
	if !ok {
		return
	}
	v.info.Declare(model.Declaration{
		Name:     name,
		Kind:     model.List,
		File:     v.path,
		Override: true,
		Source:   lang.SpanOf(sub, v.path),
	})
}

func (v *visitor) unresolved(node, target *sitter.Node) {
	if target == nil {
		return
	}
	v.logger.Debug("skipping expression with non-simple name",
		"file", v.path,
		"line", int(node.StartPoint().Row)+1,
		"expr", lang.NodeText(target, v.source))
}

// dottedPath resolves a chain of identifiers and attribute accesses to its
// segments. Any other node in the chain fails resolution.
func dottedPath(node *sitter.Node, source []byte) ([]string, bool) {
	if node == nil {
		return nil, false
	}
	switch node.Type() {
	case "identifier":
		return []string{lang.NodeText(node, source)}, true
	case "attribute":
		head, ok := dottedPath(node.ChildByFieldName("object"), source)
		attr := node.ChildByFieldName("attribute")
		if !ok || attr == nil {
			return nil, false
		}
		return append(head, lang.NodeText(attr, source)), true
	}
	return nil, false
}

// positionalArgs returns the leading positional arguments of an argument
// list, stopping at the first splat.
func positionalArgs(args *sitter.Node) []*sitter.Node {
	if args == nil || args.Type() != "argument_list" {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "comment", "keyword_argument":
			continue
		case "list_splat", "dictionary_splat":
			return out
		}
		out = append(out, arg)
	}
	return out
}

func keywordArg(args *sitter.Node, name string, source []byte) *sitter.Node {
	if args == nil || args.Type() != "argument_list" {
		return nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "keyword_argument" {
			continue
		}
		if key := arg.ChildByFieldName("name"); key != nil && lang.NodeText(key, source) == name {
			return arg.ChildByFieldName("value")
		}
	}
	return nil
}
