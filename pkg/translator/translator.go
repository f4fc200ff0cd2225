package translator

import (
	"io"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/xplshn/vmt/pkg/codegen"
	"github.com/xplshn/vmt/pkg/config"
	"github.com/xplshn/vmt/pkg/parser"
	"github.com/xplshn/vmt/pkg/token"
	"github.com/xplshn/vmt/pkg/util"
	"github.com/xplshn/vmt/pkg/vm"
)

// maxImmediate is the largest value an A-instruction can load directly.
const maxImmediate = 32767

// Record pairs one source instruction with its generated assembly block.
type Record struct {
	Src string
	Asm []string
}

// Session is one translation run over one source module. It owns the raw
// lines, the generator state and the collected records; a fresh session
// never sees another session's counters or static mapping.
type Session struct {
	name      string
	fileIndex int
	src       []string
	cfg       *config.Config

	instrs  []vm.Instruction
	records []Record
	ctx     *codegen.Context
}

func New(name string, fileIndex int, src []string, cfg *config.Config) *Session {
	return &Session{
		name:      name,
		fileIndex: fileIndex,
		src:       src,
		cfg:       cfg,
		ctx:       codegen.NewContext(),
	}
}

// Process translates every source line in file order. The first error
// aborts the run and the session keeps no partial output: all instructions
// translate, or none do.
func (s *Session) Process() error {
	for i, raw := range s.src {
		lineNo := i + 1
		ins, err := parser.ParseLine(raw, s.fileIndex, lineNo)
		if err != nil {
			s.discard()
			return err
		}
		if ins == nil {
			continue
		}

		if mv, ok := ins.(vm.StackMove); ok && mv.Seg == vm.Constant && mv.Index > maxImmediate {
			util.Warn(s.cfg, config.WarnOverflow, s.lineToken(raw, lineNo),
				"constant %d exceeds the 15-bit immediate range", mv.Index)
		}

		block, err := s.ctx.GenBlock(ins)
		if err != nil {
			s.discard()
			return &util.PosError{Tok: s.lineToken(raw, lineNo), Err: err}
		}

		s.instrs = append(s.instrs, ins)
		s.records = append(s.records, Record{Src: strings.TrimSpace(raw), Asm: block})
	}
	return nil
}

func (s *Session) discard() {
	s.instrs = nil
	s.records = nil
}

func (s *Session) Records() []Record { return s.records }

// Render produces the final output: the fixed header followed by one
// block per instruction in input order, each echoing its source line.
func (s *Session) Render() string {
	var b strings.Builder
	if s.cfg.IsFeatureEnabled(config.FeatHeader) {
		b.WriteString("// Hack assembly generated from VM code\n")
		b.WriteString("// source module: " + s.name + "\n")
	}
	for _, rec := range s.records {
		b.WriteString("\n\n")
		if s.cfg.IsFeatureEnabled(config.FeatEchoSrc) {
			b.WriteString("// " + rec.Src + "\n")
		}
		for _, line := range rec.Asm {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// Debug dumps the parsed instruction list and generator counters.
func (s *Session) Debug(w io.Writer) {
	pp.Fprintf(w, "*** instructions (%v) ***\n", s.name)
	for _, ins := range s.instrs {
		pp.Fprintf(w, "%v\n", ins)
	}
	pp.Fprintf(w, "labels=%v slots=%v\n", s.ctx.LabelCount(), s.ctx.SlotCount())
}

func (s *Session) lineToken(raw string, lineNo int) token.Token {
	trimmed := strings.TrimSpace(raw)
	col := strings.Index(raw, trimmed) + 1
	if col < 1 {
		col = 1
	}
	length := len(trimmed)
	if length < 1 {
		length = 1
	}
	return token.Token{FileIndex: s.fileIndex, Line: lineNo, Column: col, Len: length}
}
