package rewrite

import (
	"errors"
	"fmt"

	"github.com/dhamidi/retap/java/parser"
)

// ErrUnsupported marks a callback body shape the rewrite declines to touch.
// It is not a failure: the call site is simply left as it was.
var ErrUnsupported = errors.New("unsupported callback shape")

type Bucket int

const (
	BucketValue Bucket = iota
	BucketError
	BucketCommon
)

func (b Bucket) String() string {
	switch b {
	case BucketValue:
		return "VALUE"
	case BucketError:
		return "ERROR"
	}
	return "COMMON"
}

// Classification is the three-way partition of the callback body. Order
// within each bucket is the order the statements held in the source.
type Classification struct {
	Value  []*parser.Node
	Error  []*parser.Node
	Common []*parser.Node
}

func (c *Classification) add(bucket Bucket, stmt *parser.Node) {
	switch bucket {
	case BucketValue:
		c.Value = append(c.Value, stmt)
	case BucketError:
		c.Error = append(c.Error, stmt)
	default:
		c.Common = append(c.Common, stmt)
	}
}

// nullGuard describes an `if` whose condition is a direct null comparison of
// one binding, in either operand order.
type nullGuard struct {
	binding  Binding
	equal    bool // true for ==, false for !=
	thenStmt *parser.Node
	elseStmt *parser.Node
}

// Classify partitions the callback body's top-level statements into the
// VALUE, ERROR and COMMON buckets. Each statement lands in exactly one
// bucket; null guards dissolve into their classified branch statements. A
// body outside the supported shapes yields ErrUnsupported and no partition.
func Classify(body *parser.Node, b Bindings) (*Classification, error) {
	if body == nil || body.Kind != parser.KindBlock {
		return nil, fmt.Errorf("%w: callback body is not a block", ErrUnsupported)
	}

	cls := &Classification{}
	for _, stmt := range body.Children {
		if stmt.Kind == parser.KindEmptyStmt {
			continue
		}
		if err := checkSupported(stmt, b, true); err != nil {
			return nil, err
		}

		if guard := asNullGuard(stmt, b); guard != nil {
			classifyGuard(cls, guard, b)
			continue
		}
		if stmt.Kind == parser.KindIfStmt {
			// An if over a binding that is not a direct null comparison is
			// beyond the supported guard forms.
			if cond := stmt.Children[0]; References(cond, b.Value) || References(cond, b.Error) {
				return nil, fmt.Errorf("%w: non-null-comparison guard at %s", ErrUnsupported, stmt.Span.Start)
			}
		}
		cls.add(classifyPlain(stmt, b), stmt)
	}
	return cls, nil
}

// classifyPlain implements the reference-analysis default with its fixed
// precedence: error-only references first, then value-only, everything else
// (both or neither) COMMON.
func classifyPlain(stmt *parser.Node, b Bindings) Bucket {
	refsError := References(stmt, b.Error)
	refsValue := References(stmt, b.Value)
	switch {
	case refsError && !refsValue:
		return BucketError
	case refsValue && !refsError:
		return BucketValue
	}
	return BucketCommon
}

func classifyGuard(cls *Classification, guard *nullGuard, b Bindings) {
	other := b.Other(guard.binding)

	nonNullStmt, nullStmt := guard.thenStmt, guard.elseStmt
	if guard.equal {
		nonNullStmt, nullStmt = guard.elseStmt, guard.thenStmt
	}

	classifyBranch(cls, nonNullStmt, guard.binding, other, b)
	classifyBranch(cls, nullStmt, other, guard.binding, b)
}

// classifyBranch assigns a branch's statements to own's bucket, except for
// statements that reference only the other binding, which defect to its
// bucket. Statements referencing neither stay with the branch they were
// written in.
func classifyBranch(cls *Classification, branch *parser.Node, own, other Binding, b Bindings) {
	if branch == nil {
		return
	}
	defaultBucket := bucketOf(own)
	for _, stmt := range branchStatements(branch) {
		if stmt.Kind == parser.KindEmptyStmt {
			continue
		}
		if References(stmt, other) && !References(stmt, own) {
			cls.add(bucketOf(other), stmt)
			continue
		}
		cls.add(defaultBucket, stmt)
	}
}

func bucketOf(b Binding) Bucket {
	if b.Role == RoleError {
		return BucketError
	}
	return BucketValue
}

func branchStatements(branch *parser.Node) []*parser.Node {
	if branch.Kind == parser.KindBlock {
		return branch.Children
	}
	return []*parser.Node{branch}
}

// asNullGuard recognizes `if (B == null)` / `if (B != null)` / the flipped
// operand orders, with optional parentheses around the comparison.
func asNullGuard(stmt *parser.Node, b Bindings) *nullGuard {
	if stmt.Kind != parser.KindIfStmt || len(stmt.Children) < 2 {
		return nil
	}
	cond := unwrapParens(stmt.Children[0])
	if cond.Kind != parser.KindBinaryExpr || cond.Token == nil || len(cond.Children) != 2 {
		return nil
	}
	equal := false
	switch cond.Token.Kind {
	case parser.TokenEQ:
		equal = true
	case parser.TokenNE:
	default:
		return nil
	}

	left := unwrapParens(cond.Children[0])
	right := unwrapParens(cond.Children[1])
	var operand *parser.Node
	switch {
	case isNullLiteral(right):
		operand = left
	case isNullLiteral(left):
		operand = right
	default:
		return nil
	}
	if operand.Kind != parser.KindIdentifier {
		return nil
	}

	var binding Binding
	switch operand.TokenLiteral() {
	case b.Value.Name:
		binding = b.Value
	case b.Error.Name:
		binding = b.Error
	default:
		return nil
	}

	guard := &nullGuard{binding: binding, equal: equal, thenStmt: stmt.Children[1]}
	if len(stmt.Children) > 2 {
		guard.elseStmt = stmt.Children[2]
	}
	return guard
}

func unwrapParens(n *parser.Node) *parser.Node {
	for n.Kind == parser.KindParenExpr && len(n.Children) == 1 {
		n = n.Children[0]
	}
	return n
}

func isNullLiteral(n *parser.Node) bool {
	return n.Kind == parser.KindLiteral && n.Token != nil && n.Token.Kind == parser.TokenNull
}

// checkSupported rejects statements the synthesizer cannot relocate without
// changing behavior. Loops and try/switch blocks at the top level arrive as
// parser error regions; a return/break/continue outside a nested lambda
// would change control flow once split across methods; a nested lambda
// capturing a binding cannot be rehomed onto the listener fields.
func checkSupported(stmt *parser.Node, b Bindings, topLevel bool) error {
	if stmt.ContainsError() {
		return fmt.Errorf("%w: unparsed statement at %s", ErrUnsupported, stmt.Span.Start)
	}
	if escapesControlFlow(stmt) {
		return fmt.Errorf("%w: control transfer at %s", ErrUnsupported, stmt.Span.Start)
	}
	if capturedByNestedLambda(stmt, b.Value) || capturedByNestedLambda(stmt, b.Error) {
		return fmt.Errorf("%w: binding captured by nested lambda at %s", ErrUnsupported, stmt.Span.Start)
	}
	if topLevel {
		switch stmt.Kind {
		case parser.KindWhileStmt, parser.KindForStmt:
			return fmt.Errorf("%w: loop at %s", ErrUnsupported, stmt.Span.Start)
		}
	}
	return nil
}

// escapesControlFlow reports a return/break/continue whose target lies
// outside the statement: returns anywhere (except inside a nested lambda,
// where they stay local), and break/continue not enclosed by a loop within
// the statement itself.
func escapesControlFlow(stmt *parser.Node) bool {
	return walkControlFlow(stmt, false)
}

func walkControlFlow(n *parser.Node, inLoop bool) bool {
	switch n.Kind {
	case parser.KindLambdaExpr:
		return false
	case parser.KindReturnStmt:
		return true
	case parser.KindBreakStmt, parser.KindContinueStmt:
		return !inLoop
	case parser.KindWhileStmt, parser.KindForStmt:
		inLoop = true
	}
	for _, child := range n.Children {
		if walkControlFlow(child, inLoop) {
			return true
		}
	}
	return false
}
