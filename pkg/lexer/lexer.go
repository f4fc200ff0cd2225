package lexer

import (
	"unicode"

	"github.com/xplshn/vmt/pkg/token"
)

// Lexer splits one source line into tokens. VM instructions never span
// lines, so each line is scanned independently; the line number is only
// carried through for diagnostics.
type Lexer struct {
	line      []rune
	fileIndex int
	lineNo    int
	pos       int
}

func New(line string, fileIndex, lineNo int) *Lexer {
	return &Lexer{line: []rune(line), fileIndex: fileIndex, lineNo: lineNo}
}

// Scan returns every token on the line, ending with an EOL token. A blank
// or comment-only line yields a single EOL.
func Scan(line string, fileIndex, lineNo int) []token.Token {
	l := New(line, fileIndex, lineNo)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOL {
			return toks
		}
	}
}

func (l *Lexer) Next() token.Token {
	l.skipSpace()
	start := l.pos

	if l.isAtEnd() || (l.peek() == '/' && l.peekNext() == '/') {
		return l.makeToken(token.EOL, "", start)
	}

	ch := l.peek()
	switch {
	case unicode.IsLetter(ch) || ch == '_':
		for !l.isAtEnd() && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
			l.pos++
		}
		word := string(l.line[start:l.pos])
		if typ, ok := token.KeywordMap[word]; ok {
			return l.makeToken(typ, word, start)
		}
		return l.makeToken(token.Ident, word, start)
	case unicode.IsDigit(ch) || (ch == '-' && unicode.IsDigit(l.peekNext())):
		l.pos++
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			l.pos++
		}
		return l.makeToken(token.Number, string(l.line[start:l.pos]), start)
	default:
		l.pos++
		return l.makeToken(token.Illegal, string(ch), start)
	}
}

func (l *Lexer) skipSpace() {
	for !l.isAtEnd() && (l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\r') {
		l.pos++
	}
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.line) }

func (l *Lexer) peek() rune { return l.line[l.pos] }

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.line) {
		return 0
	}
	return l.line[l.pos+1]
}

func (l *Lexer) makeToken(typ token.Type, value string, start int) token.Token {
	length := l.pos - start
	if length < 1 {
		length = 1
	}
	return token.Token{
		Type:      typ,
		Value:     value,
		FileIndex: l.fileIndex,
		Line:      l.lineNo,
		Column:    start + 1,
		Len:       length,
	}
}
