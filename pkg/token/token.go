package token

type Type int

const (
	EOL Type = iota
	Illegal
	Ident
	Number
	Push
	Pop
	Add
	Sub
	Neg
	Eq
	Gt
	Lt
	And
	Or
	Not
)

// KeywordMap maps a raw opcode word to its token type.
var KeywordMap = map[string]Type{
	"push": Push,
	"pop":  Pop,
	"add":  Add,
	"sub":  Sub,
	"neg":  Neg,
	"eq":   Eq,
	"gt":   Gt,
	"lt":   Lt,
	"and":  And,
	"or":   Or,
	"not":  Not,
}

// Reverse mapping from Type to the keyword string
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
}

// IsOpcode reports whether t is one of the instruction keywords.
func (t Type) IsOpcode() bool { return t >= Push }

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
