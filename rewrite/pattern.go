// Package rewrite locates call sites of Reactor's removed
// Mono.doAfterSuccessOrError(BiConsumer) operator and rewrites them into the
// tap(SignalListener) form, redistributing the callback body across the
// synthesized listener's lifecycle methods.
package rewrite

import (
	"fmt"
	"strings"
)

// MethodMatcher matches invocations against an OpenRewrite-style pattern of
// the form "fully.qualified.Type methodName(..)". Only the receiver type and
// the simple method name participate; the argument wildcard is the only
// supported parameter form since the target API has a single overload.
type MethodMatcher struct {
	TypeName   string // fully qualified receiver type
	SimpleType string // last segment of TypeName
	Method     string
}

const DefaultPattern = "reactor.core.publisher.Mono doAfterSuccessOrError(..)"

func ParseMethodPattern(pattern string) (*MethodMatcher, error) {
	fields := strings.Fields(pattern)
	if len(fields) != 2 {
		return nil, fmt.Errorf("method pattern %q: want \"type method(..)\"", pattern)
	}
	typeName := fields[0]
	method := fields[1]
	if i := strings.Index(method, "("); i >= 0 {
		args := method[i:]
		if args != "(..)" {
			return nil, fmt.Errorf("method pattern %q: only (..) arguments are supported", pattern)
		}
		method = method[:i]
	}
	if typeName == "" || method == "" {
		return nil, fmt.Errorf("method pattern %q: empty type or method", pattern)
	}
	dot := strings.LastIndex(typeName, ".")
	return &MethodMatcher{
		TypeName:   typeName,
		SimpleType: typeName[dot+1:],
		Method:     method,
	}, nil
}

// MatchesType reports whether a declared type name (simple or fully
// qualified) denotes the pattern's receiver type under the unit's imports.
func (m *MethodMatcher) MatchesType(declared string, imports map[string]bool) bool {
	if declared == m.TypeName {
		return true
	}
	if declared != m.SimpleType {
		return false
	}
	if imports[m.TypeName] {
		return true
	}
	pkg := strings.TrimSuffix(m.TypeName, "."+m.SimpleType)
	return imports[pkg+".*"]
}
