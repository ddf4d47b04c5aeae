package oplang

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/gostyler/pkg/hostparser"
)

// Parser builds a flat hostparser.Row table directly while it
// recurse-descends the token stream; it trusts the lexer to have
// handled whitespace, focusing purely on assigning parent/child
// relationships. This mirrors the teacher parser's separation of
// concerns (lexer owns characters, parser owns structure) but emits
// rows instead of a typed AST, since the formatting engine operates
// on parse-table rows rather than a language-specific tree.
type Parser struct {
	input    string
	tokens   []Token // significant tokens only (comments filtered out)
	comments []Token
	pos      int
	nextID   int
	rows     []hostparser.Row
	errors   []string
}

type lineSpan struct{ line1, line2 int }

// Parse implements hostparser.Parser for oplang.
func Parse(source string) ([]hostparser.Row, error) {
	p := &Parser{input: source, nextID: 1}
	all := NewLexer(source).Tokenize()
	for _, t := range all {
		if t.Type == COMMENT {
			p.comments = append(p.comments, t)
		} else {
			p.tokens = append(p.tokens, t)
		}
	}

	stmtIDs, spans := p.parseProgram()

	if len(p.errors) > 0 {
		return nil, fmt.Errorf("oplang: parse failed:\n- %s", strings.Join(p.errors, "\n- "))
	}

	p.attachComments(stmtIDs, spans)
	return p.rows, nil
}

// --- token-stream helpers -------------------------------------------------

func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: EOF}
}

func (p *Parser) peek(n int) Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return Token{Type: EOF}
}

func (p *Parser) check(t TokenType) bool { return p.current().Type == t }
func (p *Parser) atEnd() bool            { return p.check(EOF) }

func (p *Parser) advance() Token {
	t := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *Parser) addError(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t TokenType, what string) Token {
	if !p.check(t) {
		p.addError("%d:%d: expected %s, got %s %q", p.current().Line, p.current().Column, what, p.current().Type, p.current().Text)
		return p.current()
	}
	return p.advance()
}

func (p *Parser) newID() int {
	id := p.nextID
	p.nextID++
	return id
}

// emitRow appends one row to the flat table.
func (p *Parser) emitRow(id, parent, line1, col1, line2, col2 int, kind, text string, terminal bool) {
	p.rows = append(p.rows, hostparser.Row{
		ID: id, Parent: parent,
		Line1: line1, Col1: col1, Line2: line2, Col2: col2,
		Kind: kind, Text: text, Terminal: terminal,
	})
}

// emitTerminal emits a row for a single already-consumed token.
func (p *Parser) emitTerminal(id, parent int, tok Token, kind string) {
	p.emitRow(id, parent, tok.Line, tok.Column, tok.EndLine, tok.EndColumn, kind, tok.Text, true)
}

// --- grammar ---------------------------------------------------------------
//
// Program    = { (';' | Expr) }
// Expr       = Assignment
// Assignment = Pipe (('<-' | '=') Assignment)?      (right-assoc)
// Pipe       = Additive ( '%...%' Additive )*        (left-assoc; %>%, %in%, ...)
// Additive   = Multiplicative (('+'|'-') Multiplicative)*
// Multiplicative = Unary (('*'|'/') Unary)*
// Unary      = ('+'|'-') Unary | Call
// Call       = Primary ('(' ArgList? ')')?
// Primary    = IDENT | NUMBER | STRING | '(' Expr ')' | '{' { Expr [';'] } '}'

// parseProgram parses a ';'-or-newline separated sequence of
// top-level expressions and returns, in order, each one's row id and
// line span (used afterwards to attach free-floating comments).
func (p *Parser) parseProgram() ([]int, []lineSpan) {
	var ids []int
	var spans []lineSpan
	for !p.atEnd() {
		if p.check(SEMI) {
			p.advance()
			continue
		}
		startLine, startCol := p.current().Line, p.current().Column
		id, endLine, endCol := p.parseExpr(0)
		p.reparent(id, 0)
		p.setSpan(id, startLine, startCol, endLine, endCol)
		ids = append(ids, id)
		spans = append(spans, lineSpan{startLine, endLine})
		for p.check(SEMI) {
			p.advance()
		}
	}
	return ids, spans
}

// reparent rewrites the Parent of the row with the given id — used
// once a subexpression that was parsed with a placeholder parent
// turns out to be a top-level expression.
func (p *Parser) reparent(id, parent int) {
	for i := range p.rows {
		if p.rows[i].ID == id {
			p.rows[i].Parent = parent
			return
		}
	}
}

func (p *Parser) setSpan(id, line1, col1, line2, col2 int) {
	for i := range p.rows {
		if p.rows[i].ID == id {
			p.rows[i].Line1, p.rows[i].Col1 = line1, col1
			p.rows[i].Line2, p.rows[i].Col2 = line2, col2
			return
		}
	}
}

// parseExpr parses one expression, emits its row(s) with Parent ==
// parent, and returns the row id of its root plus its end position.
func (p *Parser) parseExpr(parent int) (id, endLine, endCol int) {
	return p.parseAssignment(parent)
}

func (p *Parser) parseAssignment(parent int) (int, int, int) {
	startLine, startCol := p.current().Line, p.current().Column
	lhsID, lhsEndLine, lhsEndCol := p.parsePipe(0)

	if p.check(LEFT_ASSIGN) || p.check(EQ_ASSIGN) {
		opTok := p.advance()
		nodeID := p.newID()
		p.reparent(lhsID, nodeID)
		opKind := "LEFT_ASSIGN"
		if opTok.Type == EQ_ASSIGN {
			opKind = "EQ_ASSIGN"
		}
		opID := p.newID()
		p.emitTerminal(opID, nodeID, opTok, opKind)
		rhsID, rhsEndLine, rhsEndCol := p.parseAssignment(nodeID)
		p.emitRow(nodeID, parent, startLine, startCol, rhsEndLine, rhsEndCol, "expr", "", false)
		_ = rhsID
		return nodeID, rhsEndLine, rhsEndCol
	}

	p.reparent(lhsID, parent)
	return lhsID, lhsEndLine, lhsEndCol
}

func (p *Parser) parsePipe(parent int) (int, int, int) {
	startLine, startCol := p.current().Line, p.current().Column
	leftID, endLine, endCol := p.parseAdditive(0)

	for p.check(SPECIAL) {
		opTok := p.advance()
		nodeID := p.newID()
		p.reparent(leftID, nodeID)
		opID := p.newID()
		p.emitTerminal(opID, nodeID, opTok, "SPECIAL")
		rightID, rEndLine, rEndCol := p.parseAdditive(nodeID)
		_ = rightID
		p.emitRow(nodeID, parent, startLine, startCol, rEndLine, rEndCol, "expr", "", false)
		leftID, endLine, endCol = nodeID, rEndLine, rEndCol
	}

	p.reparent(leftID, parent)
	return leftID, endLine, endCol
}

func (p *Parser) parseAdditive(parent int) (int, int, int) {
	startLine, startCol := p.current().Line, p.current().Column
	leftID, endLine, endCol := p.parseMultiplicative(0)

	for p.check(PLUS) || p.check(MINUS) {
		opTok := p.advance()
		nodeID := p.newID()
		p.reparent(leftID, nodeID)
		kind := "'+'"
		if opTok.Type == MINUS {
			kind = "'-'"
		}
		opID := p.newID()
		p.emitTerminal(opID, nodeID, opTok, kind)
		rightID, rEndLine, rEndCol := p.parseMultiplicative(nodeID)
		_ = rightID
		p.emitRow(nodeID, parent, startLine, startCol, rEndLine, rEndCol, "expr", "", false)
		leftID, endLine, endCol = nodeID, rEndLine, rEndCol
	}

	p.reparent(leftID, parent)
	return leftID, endLine, endCol
}

func (p *Parser) parseMultiplicative(parent int) (int, int, int) {
	startLine, startCol := p.current().Line, p.current().Column
	leftID, endLine, endCol := p.parseUnary(0)

	for p.check(STAR) || p.check(SLASH) {
		opTok := p.advance()
		nodeID := p.newID()
		p.reparent(leftID, nodeID)
		kind := "'*'"
		if opTok.Type == SLASH {
			kind = "'/'"
		}
		opID := p.newID()
		p.emitTerminal(opID, nodeID, opTok, kind)
		rightID, rEndLine, rEndCol := p.parseUnary(nodeID)
		_ = rightID
		p.emitRow(nodeID, parent, startLine, startCol, rEndLine, rEndCol, "expr", "", false)
		leftID, endLine, endCol = nodeID, rEndLine, rEndCol
	}

	p.reparent(leftID, parent)
	return leftID, endLine, endCol
}

func (p *Parser) parseUnary(parent int) (int, int, int) {
	if p.check(PLUS) || p.check(MINUS) {
		opTok := p.advance()
		nodeID := p.newID()
		kind := "'+'"
		if opTok.Type == MINUS {
			kind = "'-'"
		}
		opID := p.newID()
		p.emitTerminal(opID, nodeID, opTok, kind)
		operandID, endLine, endCol := p.parseUnary(nodeID)
		_ = operandID
		p.emitRow(nodeID, parent, opTok.Line, opTok.Column, endLine, endCol, "unary", "", false)
		return nodeID, endLine, endCol
	}
	return p.parseCall(parent)
}

func (p *Parser) parseCall(parent int) (int, int, int) {
	startLine, startCol := p.current().Line, p.current().Column
	calleeID, endLine, endCol := p.parsePrimary(0)

	if p.check(LPAREN) {
		nodeID := p.newID()
		p.reparent(calleeID, nodeID)
		lparen := p.advance()
		lparenID := p.newID()
		p.emitTerminal(lparenID, nodeID, lparen, "'('")

		if !p.check(RPAREN) {
			for {
				p.parseExpr(nodeID)
				if p.check(COMMA) {
					comma := p.advance()
					commaID := p.newID()
					p.emitTerminal(commaID, nodeID, comma, "','")
					continue
				}
				break
			}
		}

		rparen := p.expect(RPAREN, "')'")
		rparenID := p.newID()
		p.emitTerminal(rparenID, nodeID, rparen, "')'")
		p.emitRow(nodeID, parent, startLine, startCol, rparen.EndLine, rparen.EndColumn, "call", "", false)
		return nodeID, rparen.EndLine, rparen.EndColumn
	}

	p.reparent(calleeID, parent)
	return calleeID, endLine, endCol
}

func (p *Parser) parsePrimary(parent int) (int, int, int) {
	tok := p.current()
	switch tok.Type {
	case IDENT:
		p.advance()
		id := p.newID()
		p.emitTerminal(id, parent, tok, "SYMBOL")
		return id, tok.EndLine, tok.EndColumn
	case NUMBER:
		p.advance()
		id := p.newID()
		p.emitTerminal(id, parent, tok, "NUMBER")
		return id, tok.EndLine, tok.EndColumn
	case STRING:
		p.advance()
		id := p.newID()
		p.emitTerminal(id, parent, tok, "STRING")
		return id, tok.EndLine, tok.EndColumn
	case LPAREN:
		lparen := p.advance()
		nodeID := p.newID()
		lparenID := p.newID()
		p.emitTerminal(lparenID, nodeID, lparen, "'('")
		p.parseExpr(nodeID)
		rparen := p.expect(RPAREN, "')'")
		rparenID := p.newID()
		p.emitTerminal(rparenID, nodeID, rparen, "')'")
		p.emitRow(nodeID, parent, lparen.Line, lparen.Column, rparen.EndLine, rparen.EndColumn, "paren", "", false)
		return nodeID, rparen.EndLine, rparen.EndColumn
	case LBRACE:
		lbrace := p.advance()
		nodeID := p.newID()
		lbraceID := p.newID()
		p.emitTerminal(lbraceID, nodeID, lbrace, "'{'")
		for !p.check(RBRACE) && !p.atEnd() {
			p.parseExpr(nodeID)
			for p.check(SEMI) {
				p.advance()
			}
		}
		rbrace := p.expect(RBRACE, "'}'")
		rbraceID := p.newID()
		p.emitTerminal(rbraceID, nodeID, rbrace, "'}'")
		p.emitRow(nodeID, parent, lbrace.Line, lbrace.Column, rbrace.EndLine, rbrace.EndColumn, "block", "", false)
		return nodeID, rbrace.EndLine, rbrace.EndColumn
	default:
		p.addError("%d:%d: unexpected token %s %q", tok.Line, tok.Column, tok.Type, tok.Text)
		p.advance()
		id := p.newID()
		p.emitTerminal(id, parent, tok, "ILLEGAL")
		return id, tok.EndLine, tok.EndColumn
	}
}

// attachComments assigns every scanned comment token a row: a comment
// on its own line immediately before a top-level statement attaches
// as that statement's leading comment (negative parent, per spec.md
// §3); a comment whose line falls within a statement's own span
// attaches directly to it; anything else becomes a standalone
// top-level comment row. This is the same separate-collect-then-
// reattach idea as the comment collector in other_examples' Modelica
// formatter, adapted to a flat parent-id scheme instead of a listener
// callback.
func (p *Parser) attachComments(stmtIDs []int, spans []lineSpan) {
	for _, c := range p.comments {
		attached := false
		for i, span := range spans {
			if c.Line < span.line1 {
				p.emitRow(p.newID(), -stmtIDs[i], c.Line, c.Column, c.EndLine, c.EndColumn, "COMMENT", c.Text, true)
				attached = true
				break
			}
			if c.Line >= span.line1 && c.Line <= span.line2 {
				p.emitRow(p.newID(), stmtIDs[i], c.Line, c.Column, c.EndLine, c.EndColumn, "COMMENT", c.Text, true)
				attached = true
				break
			}
		}
		if !attached {
			p.emitRow(p.newID(), 0, c.Line, c.Column, c.EndLine, c.EndColumn, "COMMENT", c.Text, true)
		}
	}
}
