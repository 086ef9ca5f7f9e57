package rewrite

import (
	"strings"
	"testing"

	"github.com/dhamidi/retap/java/parser"
)

func parseUnit(t *testing.T, source string) *parser.Node {
	t.Helper()
	p := parser.ParseCompilationUnit(strings.NewReader(source), parser.WithFile("Test.java"))
	unit := p.Finish()
	if unit == nil {
		t.Fatal("got nil compilation unit")
	}
	return unit
}

func matchAll(t *testing.T, source string) []*CallSite {
	t.Helper()
	pattern, err := ParseMethodPattern(DefaultPattern)
	if err != nil {
		t.Fatal(err)
	}
	return NewMatcher(pattern).Match(parseUnit(t, source))
}

func TestMatcherInlineLambda(t *testing.T) {
	source := `import reactor.core.publisher.Mono;

class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError((result, error) -> {
            log.info(result);
        });
    }
}`

	sites := matchAll(t, source)
	if len(sites) != 1 {
		t.Fatalf("got %d sites, want 1", len(sites))
	}

	site := sites[0]
	if !site.Inline {
		t.Error("want inline site")
	}
	if site.ElementType != "String" {
		t.Errorf("element type: got %q, want %q", site.ElementType, "String")
	}
	if site.Bindings.Value.Name != "result" || site.Bindings.Error.Name != "error" {
		t.Errorf("bindings: got %+v", site.Bindings)
	}
	if got := site.Receiver.TokenLiteral(); got != "mono" {
		t.Errorf("receiver: got %q, want %q", got, "mono")
	}
}

func TestMatcherReceiverResolution(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{
			name: "parameter receiver",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<Account> mono) {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 1,
		},
		{
			name: "local variable receiver",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test() {
        Mono<String> mono = fetch();
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 1,
		},
		{
			name: "field receiver",
			source: `import reactor.core.publisher.Mono;
class Test {
    private Mono<String> mono;
    void test() {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 1,
		},
		{
			name: "fully qualified declaration without import",
			source: `class Test {
    void test(reactor.core.publisher.Mono<String> mono) {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 1,
		},
		{
			name: "wildcard import",
			source: `import reactor.core.publisher.*;
class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 1,
		},
		{
			name: "undeclared receiver",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test() {
        mystery.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 0,
		},
		{
			name: "receiver of a different type",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Flux<String> flux) {
        flux.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 0,
		},
		{
			name: "unimported simple name",
			source: `class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 0,
		},
		{
			name: "raw receiver type",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono mono) {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 0,
		},
		{
			name: "wildcard element type",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<?> mono) {
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 0,
		},
		{
			name: "chained receiver expression",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test() {
        service.fetch().doAfterSuccessOrError((a, b) -> { });
    }
}`,
			want: 0,
		},
		{
			name: "different method name",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono) {
        mono.doOnSuccess(a -> { });
    }
}`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sites := matchAll(t, tt.source)
			if len(sites) != tt.want {
				t.Errorf("got %d sites, want %d", len(sites), tt.want)
			}
		})
	}
}

func TestMatcherShadowedReceiver(t *testing.T) {
	// The inner declaration wins: the local String shadows the Mono field.
	source := `import reactor.core.publisher.Mono;
class Test {
    private Mono<String> mono;
    void test() {
        String mono = name();
        mono.doAfterSuccessOrError((a, b) -> { });
    }
}`
	if sites := matchAll(t, source); len(sites) != 0 {
		t.Errorf("got %d sites, want 0", len(sites))
	}
}

func TestMatcherOpaqueCallbacks(t *testing.T) {
	tests := []struct {
		name          string
		source        string
		wantMethodRef bool
	}{
		{
			name: "biconsumer variable",
			source: `import java.util.function.BiConsumer;
import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono, BiConsumer<String, Throwable> consumer) {
        mono.doAfterSuccessOrError(consumer);
    }
}`,
		},
		{
			name: "field access callback",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError(this.consumer);
    }
}`,
		},
		{
			name: "method reference",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError(this::handle);
    }
}`,
			wantMethodRef: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sites := matchAll(t, tt.source)
			if len(sites) != 1 {
				t.Fatalf("got %d sites, want 1", len(sites))
			}
			site := sites[0]
			if site.Inline {
				t.Error("want opaque site")
			}
			if site.MethodRefCallback != tt.wantMethodRef {
				t.Errorf("method ref: got %v, want %v", site.MethodRefCallback, tt.wantMethodRef)
			}
		})
	}
}

func TestMatcherRejectsCallbackVariables(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "undeclared callback variable",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError(callback);
    }
}`,
		},
		{
			name: "callback variable of a different type",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono, Runnable callback) {
        mono.doAfterSuccessOrError(callback);
    }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sites := matchAll(t, tt.source); len(sites) != 0 {
				t.Errorf("got %d sites, want 0", len(sites))
			}
		})
	}
}

func TestMatcherRejectsWrongLambdaShape(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "one parameter",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError(x -> { });
    }
}`,
		},
		{
			name: "expression body",
			source: `import reactor.core.publisher.Mono;
class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError((a, b) -> handle(a, b));
    }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sites := matchAll(t, tt.source); len(sites) != 0 {
				t.Errorf("got %d sites, want 0", len(sites))
			}
		})
	}
}

func TestMatcherMultipleSites(t *testing.T) {
	source := `import reactor.core.publisher.Mono;
class Test {
    void first(Mono<String> a) {
        a.doAfterSuccessOrError((x, y) -> { });
    }
    void second(Mono<Integer> b) {
        b.doAfterSuccessOrError((x, y) -> { });
    }
}`

	sites := matchAll(t, source)
	if len(sites) != 2 {
		t.Fatalf("got %d sites, want 2", len(sites))
	}
	if sites[0].ElementType != "String" || sites[1].ElementType != "Integer" {
		t.Errorf("element types: got %q, %q", sites[0].ElementType, sites[1].ElementType)
	}
}
