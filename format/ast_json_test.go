package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dhamidi/retap/java/parser"
)

func TestASTJSONEncoder(t *testing.T) {
	p := parser.ParseCompilationUnit(strings.NewReader("package a.b;\nclass Foo {}"), parser.WithFile("Foo.java"))
	node := p.Finish()
	if node == nil {
		t.Fatal("got nil node")
	}

	var buf bytes.Buffer
	if err := NewASTJSONEncoder(&buf).Encode(node); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Kind     string `json:"kind"`
		Children []struct {
			Kind  string `json:"kind"`
			Token string `json:"token"`
		} `json:"children"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.Kind != "CompilationUnit" {
		t.Errorf("kind: got %q", decoded.Kind)
	}
	if len(decoded.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(decoded.Children))
	}
	if decoded.Children[0].Kind != "PackageDecl" || decoded.Children[0].Token != "a.b" {
		t.Errorf("package child: got %+v", decoded.Children[0])
	}
	if decoded.Children[1].Kind != "ClassDecl" {
		t.Errorf("class child: got %+v", decoded.Children[1])
	}
}
