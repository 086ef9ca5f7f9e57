package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const engineInput = `import reactor.core.publisher.Mono;

class Test {
    void test(Mono<String> mono) {
        mono.doAfterSuccessOrError((result, error) -> {
            log.info(result);
        });
    }
}
`

func writeJavaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Test.java")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEngineScanFile(t *testing.T) {
	engine, err := NewEngine(DefaultPattern)
	if err != nil {
		t.Fatal(err)
	}
	path := writeJavaFile(t, engineInput)

	result, err := engine.ScanFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("scan must not report a change")
	}
	if len(result.Sites) != 1 || !result.Sites[0].Applied {
		t.Errorf("sites: got %+v", result.Sites)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != engineInput {
		t.Error("scan modified the file")
	}
}

func TestEngineRewriteFileDryRun(t *testing.T) {
	engine, err := NewEngine(DefaultPattern)
	if err != nil {
		t.Fatal(err)
	}
	path := writeJavaFile(t, engineInput)

	result, err := engine.RewriteFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("want a change")
	}
	if !strings.Contains(string(result.Output), "mono.tap(") {
		t.Error("output not rewritten")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != engineInput {
		t.Error("dry run modified the file")
	}
}

func TestEngineRewriteFileInPlace(t *testing.T) {
	engine, err := NewEngine(DefaultPattern)
	if err != nil {
		t.Fatal(err)
	}
	path := writeJavaFile(t, engineInput)

	result, err := engine.RewriteFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("want a change")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(result.Output) {
		t.Error("file content does not match the result")
	}
	if !strings.Contains(string(data), "import reactor.core.observability.DefaultSignalListener;") {
		t.Error("imports were not maintained")
	}
}

func TestEngineRejectsBadPattern(t *testing.T) {
	if _, err := NewEngine("not-a-pattern"); err == nil {
		t.Fatal("want error for malformed pattern")
	}
}
