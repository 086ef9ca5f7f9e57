package parser

import (
	"testing"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"", []TokenKind{TokenEOF}},
		{"class", []TokenKind{TokenClass, TokenEOF}},
		{"public class Main {}", []TokenKind{TokenPublic, TokenClass, TokenIdent, TokenLBrace, TokenRBrace, TokenEOF}},
		{"123", []TokenKind{TokenIntLiteral, TokenEOF}},
		{"0x1F 1_000 42L", []TokenKind{TokenIntLiteral, TokenIntLiteral, TokenIntLiteral, TokenEOF}},
		{"3.14", []TokenKind{TokenFloatLiteral, TokenEOF}},
		{"\"hello\"", []TokenKind{TokenStringLiteral, TokenEOF}},
		{"'a'", []TokenKind{TokenCharLiteral, TokenEOF}},
		{"'\\n'", []TokenKind{TokenCharLiteral, TokenEOF}},
		{"null true false", []TokenKind{TokenNull, TokenTrue, TokenFalse, TokenEOF}},
		{"// comment\nclass", []TokenKind{TokenClass, TokenEOF}},
		{"/* block */ class", []TokenKind{TokenClass, TokenEOF}},
		{"+ - * / %", []TokenKind{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenEOF}},
		{"== != < <= > >=", []TokenKind{TokenEQ, TokenNE, TokenLT, TokenLE, TokenGT, TokenGE, TokenEOF}},
		{"&& || !", []TokenKind{TokenAnd, TokenOr, TokenNot, TokenEOF}},
		{"<< >> >>>", []TokenKind{TokenShl, TokenShr, TokenUShr, TokenEOF}},
		{"++ --", []TokenKind{TokenIncrement, TokenDecrement, TokenEOF}},
		{"->", []TokenKind{TokenArrow, TokenEOF}},
		{"::", []TokenKind{TokenColonColon, TokenEOF}},
		{"...", []TokenKind{TokenEllipsis, TokenEOF}},
		{"@", []TokenKind{TokenAt, TokenEOF}},
		{"var x", []TokenKind{TokenVar, TokenIdent, TokenEOF}},
		{"error != null", []TokenKind{TokenIdent, TokenNE, TokenNull, TokenEOF}},
		{"mono.doAfterSuccessOrError", []TokenKind{TokenIdent, TokenDot, TokenIdent, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer([]byte(tt.input), "test.java")
			var got []TokenKind
			for {
				tok := lexer.NextToken()
				if tok.Kind != TokenWhitespace && tok.Kind != TokenComment && tok.Kind != TokenLineComment {
					got = append(got, tok.Kind)
				}
				if tok.Kind == TokenEOF {
					break
				}
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d tokens, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	input := "class Foo {\n    int x;\n}"
	lexer := NewLexer([]byte(input), "test.java")

	var tokens []Token
	for {
		tok := lexer.NextToken()
		if tok.Kind != TokenWhitespace {
			tokens = append(tokens, tok)
		}
		if tok.Kind == TokenEOF {
			break
		}
	}

	// class Foo { int x ; } EOF
	if len(tokens) != 8 {
		t.Fatalf("got %d tokens, want 8", len(tokens))
	}

	intTok := tokens[3]
	if intTok.Kind != TokenInt {
		t.Fatalf("token 3: got %v, want TokenInt", intTok.Kind)
	}
	if intTok.Span.Start.Line != 2 || intTok.Span.Start.Column != 5 {
		t.Errorf("int position: got %d:%d, want 2:5", intTok.Span.Start.Line, intTok.Span.Start.Column)
	}
	if intTok.Span.Start.Offset != 16 {
		t.Errorf("int offset: got %d, want 16", intTok.Span.Start.Offset)
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"doAfterSuccessOrError", "doAfterSuccessOrError"},
		{"\"a \\\"b\\\" c\"", "\"a \\\"b\\\" c\""},
		{"123", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer([]byte(tt.input), "test.java")
			tok := lexer.NextToken()
			if tok.Literal != tt.literal {
				t.Errorf("got %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}
