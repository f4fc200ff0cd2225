package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xplshn/vmt/pkg/lexer"
	"github.com/xplshn/vmt/pkg/token"
	"github.com/xplshn/vmt/pkg/util"
	"github.com/xplshn/vmt/pkg/vm"
)

var (
	// ErrUnrecognizedOpcode marks a line whose first word is not a known
	// instruction keyword.
	ErrUnrecognizedOpcode = errors.New("unrecognized opcode")
	// ErrMalformedOperand marks a stack move with an unknown segment name
	// or a missing, non-numeric or negative index.
	ErrMalformedOperand = errors.New("malformed operand")
)

// ParseLine turns one raw source line into an instruction. Blank and
// comment-only lines return (nil, nil): they are a skip signal, not an
// error. Parsing is stateless; the same line always yields the same
// instruction.
func ParseLine(line string, fileIndex, lineNo int) (vm.Instruction, error) {
	toks := lexer.Scan(line, fileIndex, lineNo)
	first := toks[0]

	switch first.Type {
	case token.EOL:
		return nil, nil
	case token.Push:
		return parseStackMove(vm.Push, toks)
	case token.Pop:
		return parseStackMove(vm.Pop, toks)
	case token.Neg:
		return vm.UnaryOp{Kind: vm.Neg}, nil
	case token.Not:
		return vm.UnaryOp{Kind: vm.Not}, nil
	case token.Add:
		return vm.BinaryOp{Kind: vm.Add}, nil
	case token.Sub:
		return vm.BinaryOp{Kind: vm.Sub}, nil
	case token.And:
		return vm.BinaryOp{Kind: vm.And}, nil
	case token.Or:
		return vm.BinaryOp{Kind: vm.Or}, nil
	case token.Eq:
		return vm.CompareOp{Kind: vm.Eq}, nil
	case token.Gt:
		return vm.CompareOp{Kind: vm.Gt}, nil
	case token.Lt:
		return vm.CompareOp{Kind: vm.Lt}, nil
	}
	return nil, &util.PosError{
		Tok: first,
		Err: fmt.Errorf("%w: %q", ErrUnrecognizedOpcode, tokenText(first)),
	}
}

func parseStackMove(dir vm.Direction, toks []token.Token) (vm.Instruction, error) {
	segTok := toks[1]
	if segTok.Type == token.EOL {
		return nil, &util.PosError{
			Tok: segTok,
			Err: fmt.Errorf("%w: %s is missing its segment", ErrMalformedOperand, dir),
		}
	}
	if segTok.Type != token.Ident {
		return nil, &util.PosError{
			Tok: segTok,
			Err: fmt.Errorf("%w: %q is not a segment name", ErrMalformedOperand, tokenText(segTok)),
		}
	}
	seg, ok := vm.SegmentByName(segTok.Value)
	if !ok {
		return nil, &util.PosError{
			Tok: segTok,
			Err: fmt.Errorf("%w: unknown segment %q", ErrMalformedOperand, segTok.Value),
		}
	}

	idxTok := toks[2]
	if idxTok.Type == token.EOL {
		return nil, &util.PosError{
			Tok: idxTok,
			Err: fmt.Errorf("%w: %s %s is missing its index", ErrMalformedOperand, dir, seg),
		}
	}
	if idxTok.Type != token.Number {
		return nil, &util.PosError{
			Tok: idxTok,
			Err: fmt.Errorf("%w: index %q is not an integer", ErrMalformedOperand, tokenText(idxTok)),
		}
	}
	index, err := strconv.Atoi(idxTok.Value)
	if err != nil {
		return nil, &util.PosError{
			Tok: idxTok,
			Err: fmt.Errorf("%w: index %q is not an integer", ErrMalformedOperand, idxTok.Value),
		}
	}
	if index < 0 {
		return nil, &util.PosError{
			Tok: idxTok,
			Err: fmt.Errorf("%w: index must be non-negative, got %d", ErrMalformedOperand, index),
		}
	}

	return vm.StackMove{Dir: dir, Seg: seg, Index: index}, nil
}

func tokenText(tok token.Token) string {
	if tok.Value != "" {
		return tok.Value
	}
	return token.TypeStrings[tok.Type]
}
