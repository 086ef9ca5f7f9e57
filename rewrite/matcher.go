package rewrite

import (
	"strings"

	"github.com/dhamidi/retap/java/parser"
)

// CallSite is one matched invocation of the deprecated operator. It is
// extracted once, synthesized from, and discarded; nothing here survives
// across sites.
type CallSite struct {
	Call        *parser.Node // invocation node, spanning receiver through ')'
	Receiver    *parser.Node
	Callback    *parser.Node
	ElementType string // declared element type of the receiver's Mono<T>

	// Inline lambda form.
	Inline   bool
	Bindings Bindings
	Body     *parser.Node

	// Opaque callback form.
	MethodRefCallback bool
}

// Matcher finds invocations of the deprecated completion-callback method.
// It is a read-only scan: sites whose receiver or element type cannot be
// resolved are excluded, never reported as errors.
type Matcher struct {
	pattern *MethodMatcher
}

func NewMatcher(pattern *MethodMatcher) *Matcher {
	return &Matcher{pattern: pattern}
}

func (m *Matcher) Match(unit *parser.Node) []*CallSite {
	imports := Imports(unit)
	res := newResolver(unit)

	var sites []*CallSite
	unit.Walk(func(node *parser.Node) bool {
		site := m.matchCall(node, res, imports)
		if site == nil {
			return true
		}
		sites = append(sites, site)
		// Calls nested inside a matched site would splice inside spliced
		// text; they are picked up on a later pass over the rewritten file.
		return false
	})
	return sites
}

func (m *Matcher) matchCall(node *parser.Node, res *resolver, imports map[string]bool) *CallSite {
	if node.Kind != parser.KindCallExpr || len(node.Children) != 2 {
		return nil
	}
	callee := node.Children[0]
	if callee.Kind != parser.KindFieldAccess || callee.TokenLiteral() != m.pattern.Method {
		return nil
	}
	receiver := callee.Children[0]
	if receiver.Kind != parser.KindIdentifier {
		return nil
	}

	declared := res.DeclaredType(node, receiver.TokenLiteral())
	if declared == nil || !m.pattern.MatchesType(baseTypeName(declared), imports) {
		return nil
	}
	args := typeArguments(declared)
	if len(args) != 1 {
		return nil
	}
	elementType := parser.TypeName(args[0])
	if elementType == "" || strings.HasPrefix(elementType, "?") {
		return nil
	}

	site := &CallSite{
		Call:        node,
		Receiver:    receiver,
		Callback:    node.Children[1],
		ElementType: elementType,
	}

	switch site.Callback.Kind {
	case parser.KindLambdaExpr:
		params := site.Callback.FirstChildOfKind(parser.KindParameters)
		bindings, ok := bindingsFromLambda(params)
		if !ok {
			return nil
		}
		body := site.Callback.Children[len(site.Callback.Children)-1]
		if body.Kind != parser.KindBlock {
			return nil
		}
		site.Inline = true
		site.Bindings = bindings
		site.Body = body
	case parser.KindIdentifier:
		typ := res.DeclaredType(node, site.Callback.TokenLiteral())
		if typ == nil {
			return nil
		}
		if base := baseTypeName(typ); base != "BiConsumer" && base != "java.util.function.BiConsumer" {
			return nil
		}
	case parser.KindFieldAccess:
		// e.g. this.consumer; the declared type is not resolvable with a
		// lexical walk, but the method signature fixes the callback type.
	case parser.KindMethodRef:
		site.MethodRefCallback = true
	default:
		return nil
	}

	return site
}
