package rewrite

import (
	"github.com/dhamidi/retap/java/parser"
)

type Role int

const (
	RoleValue Role = iota
	RoleError
)

func (r Role) String() string {
	if r == RoleError {
		return "error"
	}
	return "value"
}

// Binding is one of the two variables the original callback declared: the
// produced value and the failure cause.
type Binding struct {
	Role Role
	Name string
}

// Bindings holds both callback bindings. For an inline lambda the names come
// from its parameter list in declaration order (value first, per the
// BiConsumer<T, Throwable> contract).
type Bindings struct {
	Value Binding
	Error Binding
}

func bindingsFromLambda(params *parser.Node) (Bindings, bool) {
	if params == nil || len(params.Children) != 2 {
		return Bindings{}, false
	}
	value := params.Children[0].TokenLiteral()
	err := params.Children[1].TokenLiteral()
	if value == "" || err == "" || value == err {
		return Bindings{}, false
	}
	return Bindings{
		Value: Binding{Role: RoleValue, Name: value},
		Error: Binding{Role: RoleError, Name: err},
	}, true
}

// Other returns the opposite binding.
func (b Bindings) Other(binding Binding) Binding {
	if binding.Role == RoleValue {
		return b.Error
	}
	return b.Value
}

// References reports whether the subtree under n contains a free occurrence
// of the binding's name. Occurrences are resolved structurally, not
// textually: a nested lambda parameter or local declaration of the same
// name shadows the binding for everything in its scope, and member names
// after '.' (field accesses, method names) never count.
func References(n *parser.Node, b Binding) bool {
	found := false
	n.Walk(func(node *parser.Node) bool {
		if found {
			return false
		}
		switch node.Kind {
		case parser.KindIdentifier:
			if node.TokenLiteral() == b.Name {
				found = true
			}
		case parser.KindLambdaExpr:
			if lambdaDeclares(node, b.Name) {
				return false
			}
		case parser.KindBlock:
			// A block redeclaring the name shadows it wholesale. The
			// declaration's own initializer may still reference the outer
			// binding, but the supported shapes never do this, and treating
			// it as shadowed only widens the no-op set.
			for _, stmt := range node.Children {
				if stmt.Kind == parser.KindLocalVarDecl && stmt.TokenLiteral() == b.Name {
					return false
				}
			}
		}
		return true
	})
	return found
}

func lambdaDeclares(lambda *parser.Node, name string) bool {
	params := lambda.FirstChildOfKind(parser.KindParameters)
	if params == nil {
		return false
	}
	for _, param := range params.Children {
		if param.TokenLiteral() == name {
			return true
		}
	}
	return false
}

// capturedByNestedLambda reports whether any lambda under n (n itself
// excluded) references the binding. Such captures cannot be split across
// listener methods, so the site is left untouched.
func capturedByNestedLambda(n *parser.Node, b Binding) bool {
	captured := false
	n.Walk(func(node *parser.Node) bool {
		if captured {
			return false
		}
		if node != n && node.Kind == parser.KindLambdaExpr {
			if !lambdaDeclares(node, b.Name) && References(node, b) {
				captured = true
			}
			return false
		}
		return true
	})
	return captured
}
