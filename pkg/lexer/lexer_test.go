package lexer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/vmt/pkg/lexer"
	"github.com/xplshn/vmt/pkg/token"
)

func TestScan(t *testing.T) {
	tests := []struct {
		line string
		want []token.Token
	}{
		{
			"push constant 17",
			[]token.Token{
				{Type: token.Push, Value: "push", Line: 1, Column: 1, Len: 4},
				{Type: token.Ident, Value: "constant", Line: 1, Column: 6, Len: 8},
				{Type: token.Number, Value: "17", Line: 1, Column: 15, Len: 2},
				{Type: token.EOL, Line: 1, Column: 17, Len: 1},
			},
		},
		{
			"  add  // fold the top two",
			[]token.Token{
				{Type: token.Add, Value: "add", Line: 1, Column: 3, Len: 3},
				{Type: token.EOL, Line: 1, Column: 8, Len: 1},
			},
		},
		{
			"",
			[]token.Token{{Type: token.EOL, Line: 1, Column: 1, Len: 1}},
		},
		{
			"// only a comment",
			[]token.Token{{Type: token.EOL, Line: 1, Column: 1, Len: 1}},
		},
		{
			"pop temp -3",
			[]token.Token{
				{Type: token.Pop, Value: "pop", Line: 1, Column: 1, Len: 3},
				{Type: token.Ident, Value: "temp", Line: 1, Column: 5, Len: 4},
				{Type: token.Number, Value: "-3", Line: 1, Column: 10, Len: 2},
				{Type: token.EOL, Line: 1, Column: 12, Len: 1},
			},
		},
		{
			"push $ 1",
			[]token.Token{
				{Type: token.Push, Value: "push", Line: 1, Column: 1, Len: 4},
				{Type: token.Illegal, Value: "$", Line: 1, Column: 6, Len: 1},
				{Type: token.Number, Value: "1", Line: 1, Column: 8, Len: 1},
				{Type: token.EOL, Line: 1, Column: 9, Len: 1},
			},
		},
	}
	for _, tc := range tests {
		got := lexer.Scan(tc.line, 0, 1)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Scan(%q) mismatch (-want +got):\n%s", tc.line, diff)
		}
	}
}

func TestKeywordsAreOpcodes(t *testing.T) {
	for word, typ := range token.KeywordMap {
		if !typ.IsOpcode() {
			t.Errorf("keyword %q has non-opcode type %d", word, typ)
		}
		toks := lexer.Scan(word, 0, 1)
		if toks[0].Type != typ {
			t.Errorf("Scan(%q)[0].Type = %d; want %d", word, toks[0].Type, typ)
		}
	}
}
