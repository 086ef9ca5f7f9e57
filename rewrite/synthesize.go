package rewrite

import (
	"strconv"
	"strings"

	"github.com/dhamidi/retap/format"
	"github.com/dhamidi/retap/java/parser"
)

const (
	importSignalListener = "reactor.core.observability.DefaultSignalListener"
	importOperators      = "reactor.core.publisher.Operators"
	importSignalType     = "reactor.core.publisher.SignalType"
	importContext        = "reactor.util.context.Context"
	importBiConsumer     = "java.util.function.BiConsumer"

	indentUnit = "    "
)

// Listener is the synthesized replacement construct: the captured fields,
// the two latches, and the lifecycle method bodies. The done latch marks
// entry into the terminal states; processedOnce makes doFinally execute the
// user's completion logic at most once even when two terminal paths race.
// Every lifecycle method body is synchronized on the listener instance.
type Listener struct {
	ElementType  string
	ValueName    string
	ErrorName    string
	ReceiverText string

	// Inline form: classified bucket statements spliced from source.
	Inline         bool
	Classification *Classification

	// Opaque form: doFinally forwards to the original callback object.
	ForwardText string
	ForwardCast bool // method references need a BiConsumer cast

	source []byte
}

// Synthesize builds the replacement listener for a matched call site. cls is
// nil for the opaque-callback form.
func Synthesize(site *CallSite, cls *Classification, source []byte) *Listener {
	l := &Listener{
		ElementType:  site.ElementType,
		ValueName:    "result",
		ErrorName:    "error",
		ReceiverText: sliceSpan(source, site.Receiver.Span),
		source:       source,
	}
	if site.Inline {
		l.Inline = true
		l.ValueName = site.Bindings.Value.Name
		l.ErrorName = site.Bindings.Error.Name
		l.Classification = cls
	} else {
		l.ForwardText = sliceSpan(source, site.Callback.Span)
		l.ForwardCast = site.MethodRefCallback
		used := map[string]bool{}
		site.Callback.Walk(func(n *parser.Node) bool {
			if n.Kind == parser.KindIdentifier {
				used[n.TokenLiteral()] = true
			}
			return true
		})
		l.ValueName = pickName("result", used)
		l.ErrorName = pickName("error", used)
	}
	return l
}

// pickName returns base unless the forwarded callback expression already
// uses that name, in which case a numeric suffix keeps the synthesized
// fields from capturing the reference.
func pickName(base string, used map[string]bool) string {
	name := base
	for i := 2; used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

func sliceSpan(source []byte, span parser.Span) string {
	return string(source[span.Start.Offset:span.End.Offset])
}

// RequiredImports lists the symbols the synthesized construct consumes, for
// the site rewriter to add. The core never edits import lists itself.
func (l *Listener) RequiredImports() []string {
	imports := []string{
		importSignalListener,
		importOperators,
		importSignalType,
		importContext,
	}
	if l.ForwardCast {
		imports = append(imports, importBiConsumer)
	}
	return imports
}

// Render emits the replacement expression. The first line starts at the
// splice point; every following line is prefixed with baseIndent, the
// indentation of the line holding the original call.
func (l *Listener) Render(baseIndent string) string {
	w := &listenerWriter{base: baseIndent}

	w.text(l.ReceiverText + ".tap(() -> new DefaultSignalListener<>() {")
	w.line(1, l.ElementType+" "+l.ValueName+";")
	w.line(1, "Throwable "+l.ErrorName+";")
	w.line(1, "boolean done;")
	w.line(1, "boolean processedOnce;")
	w.line(1, "Context currentContext;")

	w.blank()
	w.line(1, "@Override")
	w.line(1, "public synchronized void doFinally(SignalType signalType) {")
	w.line(2, "if (processedOnce) {")
	w.line(3, "return;")
	w.line(2, "}")
	w.line(2, "processedOnce = true;")
	w.line(2, "if (signalType == SignalType.CANCEL) {")
	w.line(3, "return;")
	w.line(2, "}")
	if l.Inline {
		l.splice(w, l.Classification.Common)
	} else {
		w.line(2, l.forwardCall())
	}
	w.line(1, "}")

	w.blank()
	w.line(1, "@Override")
	w.line(1, "public synchronized void doOnNext("+l.ElementType+" "+l.ValueName+") {")
	w.line(2, "if (done) {")
	w.line(3, "Operators.onDiscard("+l.ValueName+", currentContext);")
	w.line(3, "return;")
	w.line(2, "}")
	w.line(2, "this."+l.ValueName+" = "+l.ValueName+";")
	if l.Inline {
		l.splice(w, l.Classification.Value)
	}
	w.line(1, "}")

	w.blank()
	w.line(1, "@Override")
	w.line(1, "public synchronized void doOnComplete() {")
	w.line(2, "if (done) {")
	w.line(3, "return;")
	w.line(2, "}")
	w.line(2, "this.done = true;")
	w.line(1, "}")

	w.blank()
	w.line(1, "@Override")
	w.line(1, "public synchronized void doOnError(Throwable "+l.ErrorName+") {")
	w.line(2, "if (done) {")
	w.line(3, "Operators.onErrorDropped("+l.ErrorName+", currentContext);")
	w.line(2, "}")
	w.line(2, "this."+l.ErrorName+" = "+l.ErrorName+";")
	w.line(2, "this.done = true;")
	if l.Inline {
		l.splice(w, l.Classification.Error)
	}
	w.line(1, "}")

	w.blank()
	w.line(1, "@Override")
	w.line(1, "public Context addToContext(Context originalContext) {")
	w.line(2, "currentContext = originalContext;")
	w.line(2, "return originalContext;")
	w.line(1, "}")

	w.blank()
	w.line(1, "@Override")
	w.line(1, "public synchronized void doOnCancel() {")
	w.line(2, "if (done) return;")
	w.line(2, "this.done = true;")
	w.line(2, "if ("+l.ValueName+" != null) {")
	w.line(3, "Operators.onDiscard("+l.ValueName+", currentContext);")
	w.line(2, "}")
	w.line(1, "}")

	w.line(0, "})")
	return w.String()
}

func (l *Listener) forwardCall() string {
	target := l.ForwardText
	if l.ForwardCast {
		target = "((BiConsumer<" + l.ElementType + ", Throwable>) " + target + ")"
	}
	return target + ".accept(" + l.ValueName + ", " + l.ErrorName + ");"
}

// splice copies bucket statements into a method body at level 2, rebasing
// each statement's original indentation.
func (l *Listener) splice(w *listenerWriter, stmts []*parser.Node) {
	for _, stmt := range stmts {
		text := sliceSpan(l.source, stmt.Span)
		oldIndent := format.LineIndentAt(l.source, stmt.Span.Start.Offset)
		w.line(2, format.Reindent(text, oldIndent, w.base+strings.Repeat(indentUnit, 2)))
	}
}

type listenerWriter struct {
	base string
	sb   strings.Builder
	open bool // a line is in progress
}

// text appends to the current line without a newline prefix; used for the
// leading fragment that continues the splice point's line.
func (w *listenerWriter) text(s string) {
	w.sb.WriteString(s)
	w.open = true
}

func (w *listenerWriter) line(level int, s string) {
	if w.open {
		w.sb.WriteString("\n")
	}
	w.sb.WriteString(w.base)
	for i := 0; i < level; i++ {
		w.sb.WriteString(indentUnit)
	}
	w.sb.WriteString(s)
	w.open = true
}

func (w *listenerWriter) blank() {
	if w.open {
		w.sb.WriteString("\n")
	}
	w.open = true
}

func (w *listenerWriter) String() string {
	return w.sb.String()
}
