package parser

import "io"

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

type parseFunc func(*Parser) *Node

type Parser struct {
	file   string
	reader io.Reader
	input  []byte
	lexer  *Lexer
	tokens []Token
	pos    int
	entry  parseFunc
}

func ParseCompilationUnit(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		reader: r,
		entry:  (*Parser).parseCompilationUnit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func ParseExpression(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		reader: r,
		entry:  (*Parser).parseExpression,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func ParseStatement(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		reader: r,
		entry:  (*Parser).parseStatement,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) readAll() error {
	if p.input != nil {
		return nil
	}
	data, err := io.ReadAll(p.reader)
	if err != nil {
		return err
	}
	p.input = data
	return nil
}

func (p *Parser) Finish() *Node {
	if err := p.readAll(); err != nil {
		return nil
	}
	if len(p.input) == 0 {
		return nil
	}
	p.lexer = NewLexer(p.input, p.file)
	p.tokens = nil
	p.pos = 0
	p.tokenize()
	return p.entry(p)
}

func (p *Parser) tokenize() {
	for {
		tok := p.lexer.NextToken()
		if tok.Kind == TokenWhitespace || tok.Kind == TokenComment || tok.Kind == TokenLineComment {
			continue
		}
		p.tokens = append(p.tokens, tok)
		if tok.Kind == TokenEOF {
			break
		}
	}
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind TokenKind) *Token {
	tok := p.peek()
	if tok.Kind == kind {
		p.advance()
		return &tok
	}
	return nil
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

// mustProgress returns a function that checks if the parser has advanced.
// Call it at the start of a loop iteration, then call the returned function
// at the end to break if no progress was made.
func (p *Parser) mustProgress() func() bool {
	saved := p.pos
	return func() bool {
		if p.pos == saved {
			if !p.check(TokenEOF) {
				p.advance()
			}
			return false
		}
		return true
	}
}

func (p *Parser) startNode(kind NodeKind) *Node {
	return &Node{
		Kind: kind,
		Span: Span{Start: p.peek().Span.Start},
	}
}

func (p *Parser) endNode(n *Node) *Node {
	if p.pos > 0 {
		n.Span.End = p.tokens[p.pos-1].Span.End
	}
	return n
}

func (p *Parser) errorNode(message string) *Node {
	tok := p.peek()
	n := &Node{
		Kind:  KindError,
		Span:  tok.Span,
		Error: &Error{Message: message, Got: &tok},
	}
	if !p.check(TokenEOF) {
		p.advance()
	}
	return n
}

// Compilation unit

func (p *Parser) parseCompilationUnit() *Node {
	unit := p.startNode(KindCompilationUnit)

	if p.check(TokenPackage) {
		unit.AddChild(p.parsePackageDecl())
	}
	for p.check(TokenImport) {
		unit.AddChild(p.parseImportDecl())
	}
	for !p.check(TokenEOF) {
		progress := p.mustProgress()
		unit.AddChild(p.parseTypeDecl())
		if !progress() {
			break
		}
	}
	return p.endNode(unit)
}

func (p *Parser) parsePackageDecl() *Node {
	n := p.startNode(KindPackageDecl)
	p.advance() // package
	name, span := p.parseQualifiedName()
	n.Token = &Token{Kind: TokenIdent, Span: span, Literal: name}
	p.expect(TokenSemicolon)
	return p.endNode(n)
}

func (p *Parser) parseImportDecl() *Node {
	n := p.startNode(KindImportDecl)
	p.advance() // import
	if p.check(TokenStatic) {
		p.advance()
		n.AddChild(&Node{Kind: KindModifiers, Span: p.peek().Span})
	}
	name, span := p.parseQualifiedName()
	if p.check(TokenDot) && p.peekN(1).Kind == TokenStar {
		p.advance()
		p.advance()
		name += ".*"
	}
	n.Token = &Token{Kind: TokenIdent, Span: span, Literal: name}
	p.expect(TokenSemicolon)
	return p.endNode(n)
}

// IsStaticImport reports whether an import declaration carries `static`.
func (n *Node) IsStaticImport() bool {
	return n.Kind == KindImportDecl && len(n.Children) > 0 && n.Children[0].Kind == KindModifiers
}

func (p *Parser) parseQualifiedName() (string, Span) {
	start := p.peek().Span.Start
	name := ""
	for {
		tok := p.expect(TokenIdent)
		if tok == nil {
			break
		}
		if name != "" {
			name += "."
		}
		name += tok.Literal
		if p.check(TokenDot) && p.peekN(1).Kind == TokenIdent {
			p.advance()
			continue
		}
		break
	}
	end := start
	if p.pos > 0 {
		end = p.tokens[p.pos-1].Span.End
	}
	return name, Span{Start: Position{File: start.File, Offset: start.Offset, Line: start.Line, Column: start.Column}, End: end}
}

// Type declarations and members

func (p *Parser) parseTypeDecl() *Node {
	mods := p.parseModifiers()
	switch p.peek().Kind {
	case TokenClass:
		return p.parseClassLike(KindClassDecl, mods)
	case TokenInterface:
		return p.parseClassLike(KindInterfaceDecl, mods)
	case TokenEnum:
		return p.parseClassLike(KindEnumDecl, mods)
	}
	return p.errorNode("expected type declaration")
}

func (p *Parser) parseModifiers() *Node {
	mods := p.startNode(KindModifiers)
	for {
		switch p.peek().Kind {
		case TokenPublic, TokenPrivate, TokenProtected, TokenStatic, TokenFinal,
			TokenAbstract, TokenSynchronized, TokenNative, TokenTransient,
			TokenVolatile, TokenDefault:
			tok := p.advance()
			mods.AddChild(&Node{Kind: KindIdentifier, Span: tok.Span, Token: &tok})
		case TokenAt:
			mods.AddChild(p.parseAnnotation())
		default:
			return p.endNode(mods)
		}
	}
}

func (p *Parser) parseAnnotation() *Node {
	n := p.startNode(KindAnnotation)
	p.advance() // @
	name, span := p.parseQualifiedName()
	n.Token = &Token{Kind: TokenIdent, Span: span, Literal: name}
	if p.check(TokenLParen) {
		p.skipBalanced(TokenLParen, TokenRParen)
	}
	return p.endNode(n)
}

// skipBalanced consumes an open token and everything through its matching
// close token. Used for constructs the rewrite engine never inspects
// (annotation arguments, type parameter lists).
func (p *Parser) skipBalanced(open, close TokenKind) {
	if !p.check(open) {
		return
	}
	depth := 0
	for !p.check(TokenEOF) {
		switch p.peek().Kind {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseClassLike(kind NodeKind, mods *Node) *Node {
	n := p.startNode(kind)
	n.Span.Start = mods.Span.Start
	n.AddChild(mods)
	p.advance() // class / interface / enum
	if tok := p.expect(TokenIdent); tok != nil {
		n.Token = tok
	}
	if p.check(TokenLT) {
		p.skipBalanced(TokenLT, TokenGT)
	}
	if p.check(TokenExtends) {
		ext := p.startNode(KindExtendsClause)
		p.advance()
		ext.AddChild(p.parseType())
		for p.check(TokenComma) {
			p.advance()
			ext.AddChild(p.parseType())
		}
		n.AddChild(p.endNode(ext))
	}
	if p.check(TokenImplements) {
		impl := p.startNode(KindImplementsClause)
		p.advance()
		impl.AddChild(p.parseType())
		for p.check(TokenComma) {
			p.advance()
			impl.AddChild(p.parseType())
		}
		n.AddChild(p.endNode(impl))
	}
	n.AddChild(p.parseClassBody(kind == KindEnumDecl))
	return p.endNode(n)
}

func (p *Parser) parseClassBody(isEnum bool) *Node {
	body := p.startNode(KindBlock)
	if p.expect(TokenLBrace) == nil {
		return p.errorNode("expected '{'")
	}
	if isEnum {
		// Enum constants up to the first ';' are not modeled; skip them.
		for !p.match(TokenSemicolon, TokenRBrace, TokenEOF) {
			p.skipEnumConstant()
		}
		if p.check(TokenSemicolon) {
			p.advance()
		}
	}
	for !p.match(TokenRBrace, TokenEOF) {
		progress := p.mustProgress()
		body.AddChild(p.parseMember())
		if !progress() {
			break
		}
	}
	p.expect(TokenRBrace)
	return p.endNode(body)
}

func (p *Parser) skipEnumConstant() {
	for !p.match(TokenComma, TokenSemicolon, TokenRBrace, TokenEOF) {
		if p.check(TokenLParen) {
			p.skipBalanced(TokenLParen, TokenRParen)
			continue
		}
		if p.check(TokenLBrace) {
			p.skipBalanced(TokenLBrace, TokenRBrace)
			continue
		}
		p.advance()
	}
	if p.check(TokenComma) {
		p.advance()
	}
}

func (p *Parser) parseMember() *Node {
	if p.check(TokenSemicolon) {
		n := p.startNode(KindEmptyStmt)
		p.advance()
		return p.endNode(n)
	}
	if p.check(TokenLBrace) || (p.check(TokenStatic) && p.peekN(1).Kind == TokenLBrace) {
		// Instance or static initializer block.
		if p.check(TokenStatic) {
			p.advance()
		}
		return p.parseBlock()
	}

	mods := p.parseModifiers()
	switch p.peek().Kind {
	case TokenClass:
		return p.parseClassLike(KindClassDecl, mods)
	case TokenInterface:
		return p.parseClassLike(KindInterfaceDecl, mods)
	case TokenEnum:
		return p.parseClassLike(KindEnumDecl, mods)
	}
	if p.check(TokenLT) {
		p.skipBalanced(TokenLT, TokenGT)
	}

	// Constructor: identifier immediately followed by '('.
	if p.check(TokenIdent) && p.peekN(1).Kind == TokenLParen {
		n := p.startNode(KindConstructorDecl)
		n.Span.Start = mods.Span.Start
		n.AddChild(mods)
		tok := p.advance()
		n.Token = &tok
		n.AddChild(p.parseParameters())
		p.parseThrows(n)
		n.AddChild(p.parseBlock())
		return p.endNode(n)
	}

	typ := p.parseType()
	nameTok := p.expect(TokenIdent)
	if nameTok == nil {
		return p.errorNode("expected member name")
	}

	if p.check(TokenLParen) {
		n := p.startNode(KindMethodDecl)
		n.Span.Start = mods.Span.Start
		n.Token = nameTok
		n.AddChild(mods)
		n.AddChild(typ)
		n.AddChild(p.parseParameters())
		p.parseThrows(n)
		if p.check(TokenLBrace) {
			n.AddChild(p.parseBlock())
		} else {
			p.expect(TokenSemicolon)
		}
		return p.endNode(n)
	}

	// Field declaration.
	n := p.startNode(KindFieldDecl)
	n.Span.Start = mods.Span.Start
	n.Token = nameTok
	n.AddChild(mods)
	n.AddChild(typ)
	if p.check(TokenAssign) {
		p.advance()
		n.AddChild(p.parseExpression())
	}
	for p.check(TokenComma) {
		p.advance()
		extraTok := p.expect(TokenIdent)
		if extraTok == nil {
			break
		}
		extra := &Node{Kind: KindIdentifier, Span: extraTok.Span, Token: extraTok}
		n.AddChild(extra)
		if p.check(TokenAssign) {
			p.advance()
			n.AddChild(p.parseExpression())
		}
	}
	p.expect(TokenSemicolon)
	return p.endNode(n)
}

func (p *Parser) parseThrows(n *Node) {
	if !p.check(TokenThrows) {
		return
	}
	throws := p.startNode(KindThrowsList)
	p.advance()
	throws.AddChild(p.parseType())
	for p.check(TokenComma) {
		p.advance()
		throws.AddChild(p.parseType())
	}
	n.AddChild(p.endNode(throws))
}

func (p *Parser) parseParameters() *Node {
	params := p.startNode(KindParameters)
	if p.expect(TokenLParen) == nil {
		return p.errorNode("expected '('")
	}
	for !p.match(TokenRParen, TokenEOF) {
		progress := p.mustProgress()
		params.AddChild(p.parseParameter())
		if p.check(TokenComma) {
			p.advance()
		}
		if !progress() {
			break
		}
	}
	p.expect(TokenRParen)
	return p.endNode(params)
}

func (p *Parser) parseParameter() *Node {
	n := p.startNode(KindParameter)
	for p.check(TokenFinal) || p.check(TokenAt) {
		if p.check(TokenFinal) {
			p.advance()
		} else {
			p.parseAnnotation()
		}
	}
	n.AddChild(p.parseType())
	if p.check(TokenEllipsis) {
		p.advance()
	}
	if tok := p.expect(TokenIdent); tok != nil {
		n.Token = tok
	}
	return p.endNode(n)
}

// Types

func isPrimitiveType(kind TokenKind) bool {
	switch kind {
	case TokenBoolean, TokenByte, TokenChar, TokenShort, TokenInt, TokenLong,
		TokenFloat, TokenDouble, TokenVoid:
		return true
	}
	return false
}

func (p *Parser) parseType() *Node {
	n := p.startNode(KindType)

	if isPrimitiveType(p.peek().Kind) || p.check(TokenVar) {
		tok := p.advance()
		n.Token = &tok
		return p.wrapArrayType(p.endNode(n))
	}

	name, span := p.parseQualifiedName()
	if name == "" {
		return p.errorNode("expected type")
	}
	n.Token = &Token{Kind: TokenIdent, Span: span, Literal: name}
	p.endNode(n)

	if p.check(TokenLT) {
		param := &Node{Kind: KindParameterizedType, Span: n.Span}
		param.AddChild(n)
		p.advance() // <
		for !p.match(TokenGT, TokenEOF) {
			progress := p.mustProgress()
			param.AddChild(p.parseTypeArgument())
			if p.check(TokenComma) {
				p.advance()
			}
			if !progress() {
				break
			}
		}
		p.expect(TokenGT)
		n = p.endNode(param)
	}

	return p.wrapArrayType(n)
}

func (p *Parser) parseTypeArgument() *Node {
	if p.check(TokenQuestion) {
		n := p.startNode(KindWildcard)
		p.advance()
		if p.check(TokenExtends) || p.check(TokenSuper) {
			p.advance()
			n.AddChild(p.parseType())
		}
		return p.endNode(n)
	}
	return p.parseType()
}

func (p *Parser) wrapArrayType(n *Node) *Node {
	for p.check(TokenLBracket) && p.peekN(1).Kind == TokenRBracket {
		p.advance()
		p.advance()
		arr := &Node{Kind: KindArrayType, Span: n.Span}
		arr.AddChild(n)
		n = p.endNode(arr)
	}
	return n
}

// TypeName renders a parsed type node back to source-ish text, used when a
// declared type has to be re-emitted (listener field types, casts).
func TypeName(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindType:
		return n.TokenLiteral()
	case KindArrayType:
		if len(n.Children) > 0 {
			return TypeName(n.Children[0]) + "[]"
		}
	case KindParameterizedType:
		if len(n.Children) > 0 {
			s := TypeName(n.Children[0]) + "<"
			for i, arg := range n.Children[1:] {
				if i > 0 {
					s += ", "
				}
				s += TypeName(arg)
			}
			return s + ">"
		}
	case KindWildcard:
		if len(n.Children) > 0 {
			return "? extends " + TypeName(n.Children[0])
		}
		return "?"
	}
	return ""
}

// Statements

func (p *Parser) parseBlock() *Node {
	n := p.startNode(KindBlock)
	if p.expect(TokenLBrace) == nil {
		return p.errorNode("expected '{'")
	}
	for !p.match(TokenRBrace, TokenEOF) {
		progress := p.mustProgress()
		n.AddChild(p.parseStatement())
		if !progress() {
			break
		}
	}
	p.expect(TokenRBrace)
	return p.endNode(n)
}

func (p *Parser) parseStatement() *Node {
	switch p.peek().Kind {
	case TokenLBrace:
		return p.parseBlock()
	case TokenSemicolon:
		n := p.startNode(KindEmptyStmt)
		p.advance()
		return p.endNode(n)
	case TokenIf:
		return p.parseIfStmt()
	case TokenWhile:
		return p.parseWhileStmt()
	case TokenFor:
		return p.parseForStmt()
	case TokenReturn:
		n := p.startNode(KindReturnStmt)
		p.advance()
		if !p.check(TokenSemicolon) {
			n.AddChild(p.parseExpression())
		}
		p.expect(TokenSemicolon)
		return p.endNode(n)
	case TokenBreak:
		n := p.startNode(KindBreakStmt)
		p.advance()
		if p.check(TokenIdent) {
			p.advance()
		}
		p.expect(TokenSemicolon)
		return p.endNode(n)
	case TokenContinue:
		n := p.startNode(KindContinueStmt)
		p.advance()
		if p.check(TokenIdent) {
			p.advance()
		}
		p.expect(TokenSemicolon)
		return p.endNode(n)
	case TokenThrow:
		n := p.startNode(KindThrowStmt)
		p.advance()
		n.AddChild(p.parseExpression())
		p.expect(TokenSemicolon)
		return p.endNode(n)
	case TokenTry, TokenSwitch, TokenSynchronized, TokenDo:
		// Present in real bodies but outside the supported rewrite shapes;
		// consumed as an opaque error region so the matcher can skip the site.
		return p.skipUnsupportedStatement()
	}

	if stmt := p.tryParseLocalVarDecl(); stmt != nil {
		return stmt
	}

	n := p.startNode(KindExprStmt)
	n.AddChild(p.parseExpression())
	p.expect(TokenSemicolon)
	return p.endNode(n)
}

func (p *Parser) skipUnsupportedStatement() *Node {
	tok := p.peek()
	n := &Node{
		Kind:  KindError,
		Span:  tok.Span,
		Error: &Error{Message: "unsupported statement: " + tok.Literal, Got: &tok},
	}
	p.advance()
	// Consume through the statement's block(s) and any trailing clauses.
	for !p.check(TokenEOF) {
		if p.check(TokenLParen) {
			p.skipBalanced(TokenLParen, TokenRParen)
			continue
		}
		if p.check(TokenLBrace) {
			p.skipBalanced(TokenLBrace, TokenRBrace)
			if p.match(TokenCatch, TokenFinally, TokenElse, TokenWhile) {
				p.advance()
				continue
			}
			if p.check(TokenSemicolon) {
				p.advance()
			}
			break
		}
		if p.check(TokenSemicolon) {
			p.advance()
			break
		}
		if p.check(TokenRBrace) {
			break
		}
		p.advance()
	}
	return p.endNode(n)
}

func (p *Parser) parseIfStmt() *Node {
	n := p.startNode(KindIfStmt)
	p.advance() // if
	p.expect(TokenLParen)
	n.AddChild(p.parseExpression())
	p.expect(TokenRParen)
	n.AddChild(p.parseStatement())
	if p.check(TokenElse) {
		p.advance()
		n.AddChild(p.parseStatement())
	}
	return p.endNode(n)
}

func (p *Parser) parseWhileStmt() *Node {
	n := p.startNode(KindWhileStmt)
	p.advance() // while
	p.expect(TokenLParen)
	n.AddChild(p.parseExpression())
	p.expect(TokenRParen)
	n.AddChild(p.parseStatement())
	return p.endNode(n)
}

func (p *Parser) parseForStmt() *Node {
	n := p.startNode(KindForStmt)
	p.advance() // for
	p.expect(TokenLParen)

	// Enhanced for: Type name : expr
	saved := p.pos
	if !p.check(TokenSemicolon) {
		typ := p.parseType()
		nameTok := p.expect(TokenIdent)
		if !typ.IsError() && nameTok != nil && p.check(TokenColon) {
			p.advance()
			decl := &Node{Kind: KindLocalVarDecl, Span: typ.Span, Token: nameTok}
			decl.AddChild(typ)
			n.AddChild(decl)
			n.AddChild(p.parseExpression())
			p.expect(TokenRParen)
			n.AddChild(p.parseStatement())
			return p.endNode(n)
		}
		p.pos = saved
	}

	if !p.check(TokenSemicolon) {
		if init := p.tryParseLocalVarDeclNoSemi(); init != nil {
			n.AddChild(init)
		} else {
			n.AddChild(p.parseExpression())
			for p.check(TokenComma) {
				p.advance()
				n.AddChild(p.parseExpression())
			}
		}
	}
	p.expect(TokenSemicolon)
	if !p.check(TokenSemicolon) {
		n.AddChild(p.parseExpression())
	}
	p.expect(TokenSemicolon)
	for !p.match(TokenRParen, TokenEOF) {
		progress := p.mustProgress()
		n.AddChild(p.parseExpression())
		if p.check(TokenComma) {
			p.advance()
		}
		if !progress() {
			break
		}
	}
	p.expect(TokenRParen)
	n.AddChild(p.parseStatement())
	return p.endNode(n)
}

// tryParseLocalVarDecl speculatively parses `Type name (= expr)? (, name (= expr)?)* ;`
// and rolls back when the lookahead does not fit a declaration.
func (p *Parser) tryParseLocalVarDecl() *Node {
	saved := p.pos
	n := p.tryParseLocalVarDeclNoSemi()
	if n == nil {
		return nil
	}
	if p.expect(TokenSemicolon) == nil {
		p.pos = saved
		return nil
	}
	return p.endNode(n)
}

func (p *Parser) tryParseLocalVarDeclNoSemi() *Node {
	saved := p.pos
	n := p.startNode(KindLocalVarDecl)
	for p.check(TokenFinal) || p.check(TokenAt) {
		if p.check(TokenFinal) {
			p.advance()
		} else {
			p.parseAnnotation()
		}
	}
	if !isPrimitiveType(p.peek().Kind) && !p.check(TokenIdent) && !p.check(TokenVar) {
		p.pos = saved
		return nil
	}
	typ := p.parseType()
	if typ.IsError() {
		p.pos = saved
		return nil
	}
	nameTok := p.expect(TokenIdent)
	if nameTok == nil || !p.match(TokenAssign, TokenComma, TokenSemicolon) {
		p.pos = saved
		return nil
	}
	n.Token = nameTok
	n.AddChild(typ)
	if p.check(TokenAssign) {
		p.advance()
		n.AddChild(p.parseExpression())
	}
	for p.check(TokenComma) {
		p.advance()
		extraTok := p.expect(TokenIdent)
		if extraTok == nil {
			p.pos = saved
			return nil
		}
		extra := &Node{Kind: KindIdentifier, Span: extraTok.Span, Token: extraTok}
		n.AddChild(extra)
		if p.check(TokenAssign) {
			p.advance()
			n.AddChild(p.parseExpression())
		}
	}
	return p.endNode(n)
}

// Expressions

func (p *Parser) parseExpression() *Node {
	return p.parseAssignment()
}

func isAssignOp(kind TokenKind) bool {
	switch kind {
	case TokenAssign, TokenPlusAssign, TokenMinusAssign, TokenStarAssign,
		TokenSlashAssign, TokenPercentAssign, TokenAndAssign, TokenOrAssign,
		TokenXorAssign, TokenShlAssign, TokenShrAssign, TokenUShrAssign:
		return true
	}
	return false
}

func (p *Parser) parseAssignment() *Node {
	left := p.parseTernary()
	if isAssignOp(p.peek().Kind) {
		n := &Node{Kind: KindAssignExpr, Span: left.Span}
		tok := p.advance()
		n.Token = &tok
		n.AddChild(left)
		n.AddChild(p.parseAssignment())
		return p.endNode(n)
	}
	return left
}

func (p *Parser) parseTernary() *Node {
	cond := p.parseBinary(0)
	if !p.check(TokenQuestion) {
		return cond
	}
	n := &Node{Kind: KindTernaryExpr, Span: cond.Span}
	p.advance() // ?
	n.AddChild(cond)
	n.AddChild(p.parseExpression())
	p.expect(TokenColon)
	n.AddChild(p.parseAssignment())
	return p.endNode(n)
}

var binaryLevels = [][]TokenKind{
	{TokenOr},
	{TokenAnd},
	{TokenBitOr},
	{TokenBitXor},
	{TokenBitAnd},
	{TokenEQ, TokenNE},
	{TokenLT, TokenLE, TokenGT, TokenGE, TokenInstanceof},
	{TokenShl, TokenShr, TokenUShr},
	{TokenPlus, TokenMinus},
	{TokenStar, TokenSlash, TokenPercent},
}

func (p *Parser) parseBinary(level int) *Node {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}
	left := p.parseBinary(level + 1)
	for p.match(binaryLevels[level]...) {
		tok := p.advance()
		if tok.Kind == TokenInstanceof {
			n := &Node{Kind: KindInstanceofExpr, Span: left.Span, Token: &tok}
			n.AddChild(left)
			n.AddChild(p.parseType())
			if p.check(TokenIdent) {
				p.advance() // pattern variable
			}
			left = p.endNode(n)
			continue
		}
		n := &Node{Kind: KindBinaryExpr, Span: left.Span, Token: &tok}
		n.AddChild(left)
		n.AddChild(p.parseBinary(level + 1))
		left = p.endNode(n)
	}
	return left
}

func (p *Parser) parseUnary() *Node {
	switch p.peek().Kind {
	case TokenPlus, TokenMinus, TokenNot, TokenBitNot, TokenIncrement, TokenDecrement:
		n := p.startNode(KindUnaryExpr)
		tok := p.advance()
		n.Token = &tok
		n.AddChild(p.parseUnary())
		return p.endNode(n)
	}
	if p.check(TokenLParen) {
		if cast := p.tryParseCast(); cast != nil {
			return cast
		}
	}
	return p.parsePostfix()
}

// tryParseCast distinguishes `(Type) expr` from a parenthesized expression.
// A cast is assumed when the parenthesized text parses as a type and either
// the type could not be a plain expression (primitive, generic, array,
// qualified) or the following token starts an operand.
func (p *Parser) tryParseCast() *Node {
	saved := p.pos
	n := p.startNode(KindCastExpr)
	p.advance() // (
	typ := p.parseType()
	if typ.IsError() || p.expect(TokenRParen) == nil {
		p.pos = saved
		return nil
	}
	operandStart := false
	switch p.peek().Kind {
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral, TokenStringLiteral,
		TokenCharLiteral, TokenTrue, TokenFalse, TokenNull, TokenThis,
		TokenSuper, TokenNew, TokenLParen, TokenNot, TokenBitNot:
		operandStart = true
	}
	if !operandStart {
		p.pos = saved
		return nil
	}
	n.AddChild(typ)
	n.AddChild(p.parseUnary())
	return p.endNode(n)
}

func (p *Parser) parsePostfix() *Node {
	expr := p.parsePrimary()
	for {
		switch p.peek().Kind {
		case TokenDot:
			p.advance()
			nameTok := p.expect(TokenIdent)
			if nameTok == nil {
				// this/super/class qualifiers; consume and continue
				p.advance()
				continue
			}
			access := &Node{Kind: KindFieldAccess, Span: expr.Span, Token: nameTok}
			access.AddChild(expr)
			expr = p.endNode(access)
		case TokenLParen:
			call := &Node{Kind: KindCallExpr, Span: expr.Span}
			call.AddChild(expr)
			p.parseArguments(call)
			expr = p.endNode(call)
		case TokenColonColon:
			p.advance()
			ref := &Node{Kind: KindMethodRef, Span: expr.Span}
			ref.AddChild(expr)
			if p.check(TokenNew) {
				tok := p.advance()
				ref.Token = &tok
			} else if nameTok := p.expect(TokenIdent); nameTok != nil {
				ref.Token = nameTok
			}
			expr = p.endNode(ref)
		case TokenLBracket:
			p.advance()
			access := &Node{Kind: KindArrayAccess, Span: expr.Span}
			access.AddChild(expr)
			access.AddChild(p.parseExpression())
			p.expect(TokenRBracket)
			expr = p.endNode(access)
		case TokenIncrement, TokenDecrement:
			tok := p.advance()
			post := &Node{Kind: KindPostfixExpr, Span: expr.Span, Token: &tok}
			post.AddChild(expr)
			expr = p.endNode(post)
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments(call *Node) {
	p.expect(TokenLParen)
	for !p.match(TokenRParen, TokenEOF) {
		progress := p.mustProgress()
		call.AddChild(p.parseExpression())
		if p.check(TokenComma) {
			p.advance()
		}
		if !progress() {
			break
		}
	}
	p.expect(TokenRParen)
}

func (p *Parser) parsePrimary() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral, TokenFloatLiteral, TokenStringLiteral, TokenCharLiteral,
		TokenTrue, TokenFalse, TokenNull:
		n := p.startNode(KindLiteral)
		t := p.advance()
		n.Token = &t
		return p.endNode(n)
	case TokenThis:
		n := p.startNode(KindThis)
		t := p.advance()
		n.Token = &t
		return p.endNode(n)
	case TokenSuper:
		n := p.startNode(KindSuper)
		t := p.advance()
		n.Token = &t
		return p.endNode(n)
	case TokenIdent:
		if p.peekN(1).Kind == TokenArrow {
			return p.parseLambdaFromIdent()
		}
		n := p.startNode(KindIdentifier)
		t := p.advance()
		n.Token = &t
		return p.endNode(n)
	case TokenNew:
		return p.parseNewExpr()
	case TokenLParen:
		if p.isLambdaParens() {
			return p.parseLambdaFromParens()
		}
		n := p.startNode(KindParenExpr)
		p.advance()
		n.AddChild(p.parseExpression())
		p.expect(TokenRParen)
		return p.endNode(n)
	}
	if isPrimitiveType(tok.Kind) {
		// e.g. int.class, long[].class
		n := p.startNode(KindIdentifier)
		t := p.advance()
		n.Token = &t
		return p.endNode(n)
	}
	return p.errorNode("expected expression")
}

// isLambdaParens looks past a balanced '(...)' for '->'.
func (p *Parser) isLambdaParens() bool {
	depth := 0
	for i := 0; ; i++ {
		tok := p.peekN(i)
		switch tok.Kind {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				return p.peekN(i+1).Kind == TokenArrow
			}
		case TokenEOF, TokenSemicolon, TokenLBrace:
			return false
		}
	}
}

func (p *Parser) parseLambdaFromIdent() *Node {
	n := p.startNode(KindLambdaExpr)
	params := p.startNode(KindParameters)
	tok := p.advance()
	params.AddChild(&Node{
		Kind:  KindParameter,
		Span:  tok.Span,
		Token: &tok,
	})
	n.AddChild(p.endNode(params))
	p.expect(TokenArrow)
	n.AddChild(p.parseLambdaBody())
	return p.endNode(n)
}

func (p *Parser) parseLambdaFromParens() *Node {
	n := p.startNode(KindLambdaExpr)
	params := p.startNode(KindParameters)
	p.expect(TokenLParen)
	for !p.match(TokenRParen, TokenEOF) {
		progress := p.mustProgress()
		params.AddChild(p.parseLambdaParameter())
		if p.check(TokenComma) {
			p.advance()
		}
		if !progress() {
			break
		}
	}
	p.expect(TokenRParen)
	n.AddChild(p.endNode(params))
	p.expect(TokenArrow)
	n.AddChild(p.parseLambdaBody())
	return p.endNode(n)
}

// parseLambdaParameter accepts both `name` and `Type name` forms.
func (p *Parser) parseLambdaParameter() *Node {
	n := p.startNode(KindParameter)
	for p.check(TokenFinal) || p.check(TokenAt) {
		if p.check(TokenFinal) {
			p.advance()
		} else {
			p.parseAnnotation()
		}
	}
	if p.check(TokenIdent) && (p.peekN(1).Kind == TokenComma || p.peekN(1).Kind == TokenRParen) {
		tok := p.advance()
		n.Token = &tok
		return p.endNode(n)
	}
	n.AddChild(p.parseType())
	if tok := p.expect(TokenIdent); tok != nil {
		n.Token = tok
	}
	return p.endNode(n)
}

func (p *Parser) parseLambdaBody() *Node {
	if p.check(TokenLBrace) {
		return p.parseBlock()
	}
	return p.parseExpression()
}

func (p *Parser) parseNewExpr() *Node {
	n := p.startNode(KindNewExpr)
	p.advance() // new
	typ := p.parseType()
	n.AddChild(typ)

	// Diamond operator: the type parse leaves `<>` unconsumed only when the
	// argument list is empty; parseType consumes `<...>` otherwise.
	if p.check(TokenLT) && p.peekN(1).Kind == TokenGT {
		p.advance()
		p.advance()
	}

	if p.check(TokenLBracket) {
		// Array creation; dimensions and initializers are opaque here.
		for p.check(TokenLBracket) {
			p.skipBalanced(TokenLBracket, TokenRBracket)
		}
		if p.check(TokenLBrace) {
			p.skipBalanced(TokenLBrace, TokenRBrace)
		}
		return p.endNode(n)
	}

	if p.check(TokenLParen) {
		p.parseArguments(n)
	}
	if p.check(TokenLBrace) {
		n.AddChild(p.parseClassBody(false))
	}
	return p.endNode(n)
}
