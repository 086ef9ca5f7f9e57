package rewrite

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/retap/java/parser"
)

// parseCallback parses a two-parameter lambda and returns its block body,
// its bindings, and the source for slicing statement text.
func parseCallback(t *testing.T, lambda string) (*parser.Node, Bindings, []byte) {
	t.Helper()
	source := []byte(lambda)
	p := parser.ParseExpression(strings.NewReader(lambda))
	node := p.Finish()
	if node == nil || node.Kind != parser.KindLambdaExpr {
		t.Fatalf("not a lambda: %v", node)
	}
	params := node.FirstChildOfKind(parser.KindParameters)
	b, ok := bindingsFromLambda(params)
	if !ok {
		t.Fatal("lambda does not bind two distinct names")
	}
	body := node.Children[len(node.Children)-1]
	if body.Kind != parser.KindBlock {
		t.Fatal("lambda body is not a block")
	}
	return body, b, source
}

func bucketTexts(source []byte, stmts []*parser.Node) []string {
	var texts []string
	for _, stmt := range stmts {
		texts = append(texts, sliceSpan(source, stmt.Span))
	}
	return texts
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		lambda     string
		wantValue  []string
		wantError  []string
		wantCommon []string
	}{
		{
			name: "null guard on error",
			lambda: `(result, error) -> {
    if (error != null) {
        log.error("failed", error);
    } else {
        log.info("got {}", result);
    }
}`,
			wantError: []string{`log.error("failed", error);`},
			wantValue: []string{`log.info("got {}", result);`},
		},
		{
			name: "null guard on value",
			lambda: `(result, error) -> {
    if (result != null) {
        cache.put(result);
    } else {
        alert(error);
    }
}`,
			wantValue: []string{`cache.put(result);`},
			wantError: []string{`alert(error);`},
		},
		{
			name: "equality guard flips branches",
			lambda: `(result, error) -> {
    if (error == null) {
        publish(result);
    } else {
        report(error);
    }
}`,
			wantValue: []string{`publish(result);`},
			wantError: []string{`report(error);`},
		},
		{
			name: "flipped operand order",
			lambda: `(result, error) -> {
    if (null != error) {
        report(error);
    }
}`,
			wantError: []string{`report(error);`},
		},
		{
			name: "successive equality guards",
			lambda: `(result, error) -> {
    if (error == null) {
        publish(result);
    }
    if (result == null) {
        report(error);
    }
    common();
}`,
			wantValue:  []string{`publish(result);`},
			wantError:  []string{`report(error);`},
			wantCommon: []string{`common();`},
		},
		{
			name: "plain statements by reference",
			lambda: `(result, error) -> {
    log.info(result.toString());
    metrics.recordError(error);
    cleanup();
    audit.record(result, error);
}`,
			wantValue:  []string{`log.info(result.toString());`},
			wantError:  []string{`metrics.recordError(error);`},
			wantCommon: []string{`cleanup();`, `audit.record(result, error);`},
		},
		{
			name: "branch statement defects to other bucket",
			lambda: `(result, error) -> {
    if (error != null) {
        report(error);
        cache.evict(result);
    }
}`,
			wantError: []string{`report(error);`},
			wantValue: []string{`cache.evict(result);`},
		},
		{
			name: "neutral branch statement stays put",
			lambda: `(result, error) -> {
    if (error != null) {
        counter.increment();
    } else {
        publish(result);
    }
}`,
			wantError: []string{`counter.increment();`},
			wantValue: []string{`publish(result);`},
		},
		{
			name: "guard without else",
			lambda: `(result, error) -> {
    if (result != null) {
        publish(result);
    }
    cleanup();
}`,
			wantValue:  []string{`publish(result);`},
			wantCommon: []string{`cleanup();`},
		},
		{
			name:   "empty body",
			lambda: `(result, error) -> { }`,
		},
		{
			name: "member access is not a reference",
			lambda: `(result, error) -> {
    other.error("no binding here");
}`,
			wantCommon: []string{`other.error("no binding here");`},
		},
		{
			name: "shadowed name in nested lambda",
			lambda: `(result, error) -> {
    items.forEach(result -> sink.add(result));
}`,
			wantCommon: []string{`items.forEach(result -> sink.add(result));`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, b, source := parseCallback(t, tt.lambda)
			cls, err := Classify(body, b)
			if err != nil {
				t.Fatal(err)
			}
			check := func(bucket string, got []*parser.Node, want []string) {
				texts := bucketTexts(source, got)
				if len(texts) != len(want) {
					t.Fatalf("%s: got %v, want %v", bucket, texts, want)
				}
				for i := range want {
					if texts[i] != want[i] {
						t.Errorf("%s[%d]: got %q, want %q", bucket, i, texts[i], want[i])
					}
				}
			}
			check("VALUE", cls.Value, tt.wantValue)
			check("ERROR", cls.Error, tt.wantError)
			check("COMMON", cls.Common, tt.wantCommon)
		})
	}
}

func TestClassifyUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		lambda string
	}{
		{
			name:   "top level return",
			lambda: `(result, error) -> { if (error != null) { return; } publish(result); }`,
		},
		{
			name:   "top level loop",
			lambda: `(result, error) -> { while (busy()) { spin(); } }`,
		},
		{
			name:   "try block",
			lambda: `(result, error) -> { try { publish(result); } catch (Exception e) { } }`,
		},
		{
			name:   "guard beyond null comparison",
			lambda: `(result, error) -> { if (error instanceof TimeoutException) { report(error); } }`,
		},
		{
			name:   "compound guard condition",
			lambda: `(result, error) -> { if (error != null && result == null) { report(error); } }`,
		},
		{
			name:   "binding captured by nested lambda",
			lambda: `(result, error) -> { executor.submit(() -> publish(result)); }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, b, _ := parseCallback(t, tt.lambda)
			_, err := Classify(body, b)
			if !errors.Is(err, ErrUnsupported) {
				t.Fatalf("got %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestClassifyAllowsLoopLocalControlFlow(t *testing.T) {
	// break inside a loop that is itself inside a guard branch does not
	// escape the callback.
	lambda := `(result, error) -> {
    if (error != null) {
        for (int i = 0; i < 3; i++) {
            if (retry(error)) {
                break;
            }
        }
    }
}`
	body, b, _ := parseCallback(t, lambda)
	cls, err := Classify(body, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(cls.Error) != 1 {
		t.Fatalf("got %d ERROR statements, want 1", len(cls.Error))
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"plain use", "publish(result)", true},
		{"member name only", "other.result", false},
		{"method name only", "foo.result()", false},
		{"absent", "cleanup()", false},
		{"inside nested call", "wrap(of(result))", true},
		{"shadowing lambda", "items.map(result -> result + 1)", false},
	}

	binding := Binding{Role: RoleValue, Name: "result"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parser.ParseExpression(strings.NewReader(tt.expr))
			node := p.Finish()
			if node == nil {
				t.Fatal("got nil node")
			}
			if got := References(node, binding); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
