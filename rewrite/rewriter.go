package rewrite

import (
	"bytes"
	"errors"
	"sort"
	"strings"

	"github.com/dhamidi/retap/format"
	"github.com/dhamidi/retap/java/parser"
)

// SiteResult records what happened to one matched call site.
type SiteResult struct {
	Line     int
	Column   int
	Receiver string
	Inline   bool
	Applied  bool
	Reason   string // populated when the site was left untouched
}

// FileResult is the outcome of rewriting one compilation unit.
type FileResult struct {
	File    string
	Output  []byte
	Changed bool
	Sites   []SiteResult
}

type edit struct {
	start, end int
	text       string
}

// RewriteSource parses source, rewrites every supported match in a single
// pass, and maintains the import list for the symbols the synthesized
// listeners consume. Unsupported sites are reported but left byte-identical.
func RewriteSource(source []byte, file string, pattern *MethodMatcher) (*FileResult, error) {
	result := &FileResult{File: file, Output: source}

	p := parser.ParseCompilationUnit(bytes.NewReader(source), parser.WithFile(file))
	unit := p.Finish()
	if unit == nil {
		return result, nil
	}

	sites := NewMatcher(pattern).Match(unit)
	if len(sites) == 0 {
		return result, nil
	}

	var edits []edit
	needed := make(map[string]bool)
	for _, site := range sites {
		sr := SiteResult{
			Line:     site.Call.Span.Start.Line,
			Column:   site.Call.Span.Start.Column,
			Receiver: sliceSpan(source, site.Receiver.Span),
			Inline:   site.Inline,
		}

		var cls *Classification
		if site.Inline {
			var err error
			cls, err = Classify(site.Body, site.Bindings)
			if err != nil {
				if !errors.Is(err, ErrUnsupported) {
					return nil, err
				}
				sr.Reason = err.Error()
				result.Sites = append(result.Sites, sr)
				continue
			}
		}

		listener := Synthesize(site, cls, source)
		baseIndent := format.LineIndentAt(source, site.Call.Span.Start.Offset)
		edits = append(edits, edit{
			start: site.Call.Span.Start.Offset,
			end:   site.Call.Span.End.Offset,
			text:  listener.Render(baseIndent),
		})
		for _, imp := range listener.RequiredImports() {
			needed[imp] = true
		}
		sr.Applied = true
		result.Sites = append(result.Sites, sr)
	}

	if len(edits) == 0 {
		return result, nil
	}

	if importEdit := rebuildImports(source, unit, needed); importEdit != nil {
		edits = append(edits, *importEdit)
	}

	result.Output = applyEdits(source, edits)
	result.Changed = true
	return result, nil
}

func applyEdits(source []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].start > edits[j].start
	})
	out := append([]byte(nil), source...)
	for _, e := range edits {
		out = append(out[:e.start], append([]byte(e.text), out[e.end:]...)...)
	}
	return out
}

// rebuildImports regenerates the import block with the required symbols
// merged in: java/javax imports first, then the rest, then static imports,
// each group sorted, with a blank line between groups.
func rebuildImports(source []byte, unit *parser.Node, needed map[string]bool) *edit {
	var plain, static []string
	seen := make(map[string]bool)
	first, last := -1, -1
	for _, child := range unit.Children {
		if child.Kind != parser.KindImportDecl {
			continue
		}
		if first < 0 {
			first = child.Span.Start.Offset
		}
		last = child.Span.End.Offset
		if child.IsStaticImport() {
			static = append(static, child.TokenLiteral())
		} else {
			plain = append(plain, child.TokenLiteral())
			seen[child.TokenLiteral()] = true
		}
	}

	added := false
	for imp := range needed {
		if !seen[imp] {
			plain = append(plain, imp)
			added = true
		}
	}
	if !added {
		return nil
	}

	var java, other []string
	for _, imp := range plain {
		if strings.HasPrefix(imp, "java.") || strings.HasPrefix(imp, "javax.") {
			java = append(java, imp)
		} else {
			other = append(other, imp)
		}
	}
	sort.Strings(java)
	sort.Strings(other)
	sort.Strings(static)

	var groups []string
	if len(java) > 0 {
		groups = append(groups, importLines(java, false))
	}
	if len(other) > 0 {
		groups = append(groups, importLines(other, false))
	}
	if len(static) > 0 {
		groups = append(groups, importLines(static, true))
	}
	block := strings.Join(groups, "\n\n")

	if first >= 0 {
		return &edit{start: first, end: last, text: block}
	}

	// No existing imports: insert below the package declaration, or at the
	// top of the file.
	if pkg := unit.FirstChildOfKind(parser.KindPackageDecl); pkg != nil {
		return &edit{
			start: pkg.Span.End.Offset,
			end:   pkg.Span.End.Offset,
			text:  "\n\n" + block,
		}
	}
	return &edit{start: 0, end: 0, text: block + "\n\n"}
}

func importLines(paths []string, static bool) string {
	var lines []string
	for _, path := range paths {
		if static {
			lines = append(lines, "import static "+path+";")
		} else {
			lines = append(lines, "import "+path+";")
		}
	}
	return strings.Join(lines, "\n")
}
