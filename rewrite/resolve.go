package rewrite

import (
	"github.com/dhamidi/retap/java/parser"
)

// resolver answers "what is the declared type of identifier X at node N"
// with a lexical scope walk over the path from the compilation unit down to
// N: class fields, then method/constructor parameters, then local variable
// declarations preceding N, then lambda parameters. Inner declarations
// shadow outer ones. This stands in for the host's static type oracle; any
// identifier it cannot see resolves to nil and the call site is skipped.
type resolver struct {
	unit *parser.Node
}

func newResolver(unit *parser.Node) *resolver {
	return &resolver{unit: unit}
}

// Imports collects the unit's import paths (including wildcard entries).
func Imports(unit *parser.Node) map[string]bool {
	imports := make(map[string]bool)
	for _, child := range unit.Children {
		if child.Kind == parser.KindImportDecl && !child.IsStaticImport() {
			imports[child.TokenLiteral()] = true
		}
	}
	return imports
}

// DeclaredType returns the type node declared for name in scope at target,
// or nil when the name is not visible or its declaration carries no type
// (untyped lambda parameters).
func (r *resolver) DeclaredType(target *parser.Node, name string) *parser.Node {
	path := pathTo(r.unit, target)
	if path == nil {
		return nil
	}

	var found *parser.Node
	for i, node := range path {
		switch node.Kind {
		case parser.KindClassDecl, parser.KindInterfaceDecl, parser.KindEnumDecl:
			if body := node.FirstChildOfKind(parser.KindBlock); body != nil {
				for _, member := range body.Children {
					if member.Kind == parser.KindFieldDecl && member.TokenLiteral() == name {
						found = declaredTypeChild(member)
					}
				}
			}
		case parser.KindMethodDecl, parser.KindConstructorDecl:
			if params := node.FirstChildOfKind(parser.KindParameters); params != nil {
				if typ := paramType(params, name); typ != nil {
					found = typ
				}
			}
		case parser.KindLambdaExpr:
			if params := node.FirstChildOfKind(parser.KindParameters); params != nil {
				for _, param := range params.Children {
					if param.TokenLiteral() == name {
						// Untyped parameters shadow without providing a type.
						found = declaredTypeChild(param)
					}
				}
			}
		case parser.KindBlock:
			limit := target.Span.Start.Offset
			if i+1 < len(path) {
				limit = path[i+1].Span.Start.Offset
			}
			for _, stmt := range node.Children {
				if stmt.Kind == parser.KindLocalVarDecl &&
					stmt.TokenLiteral() == name &&
					stmt.Span.Start.Offset <= limit {
					found = declaredTypeChild(stmt)
				}
			}
		}
	}
	return found
}

func paramType(params *parser.Node, name string) *parser.Node {
	for _, param := range params.Children {
		if param.TokenLiteral() == name {
			return declaredTypeChild(param)
		}
	}
	return nil
}

func declaredTypeChild(param *parser.Node) *parser.Node {
	for _, child := range param.Children {
		switch child.Kind {
		case parser.KindType, parser.KindParameterizedType, parser.KindArrayType:
			return child
		}
	}
	return nil
}

// pathTo returns the chain of nodes from root down to target, inclusive.
func pathTo(root, target *parser.Node) []*parser.Node {
	if root == target {
		return []*parser.Node{root}
	}
	for _, child := range root.Children {
		if within(child.Span, target.Span) {
			if sub := pathTo(child, target); sub != nil {
				return append([]*parser.Node{root}, sub...)
			}
		}
	}
	return nil
}

func within(outer, inner parser.Span) bool {
	return outer.Start.Offset <= inner.Start.Offset && inner.End.Offset <= outer.End.Offset
}

// baseTypeName returns the base identifier of a (possibly parameterized or
// array) type node.
func baseTypeName(typ *parser.Node) string {
	if typ == nil {
		return ""
	}
	switch typ.Kind {
	case parser.KindType:
		return typ.TokenLiteral()
	case parser.KindParameterizedType, parser.KindArrayType:
		if len(typ.Children) > 0 {
			return baseTypeName(typ.Children[0])
		}
	}
	return ""
}

// typeArguments returns the argument nodes of a parameterized type.
func typeArguments(typ *parser.Node) []*parser.Node {
	if typ == nil || typ.Kind != parser.KindParameterizedType || len(typ.Children) < 2 {
		return nil
	}
	return typ.Children[1:]
}
