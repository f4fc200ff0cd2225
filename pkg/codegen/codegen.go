package codegen

import (
	"errors"
	"fmt"

	"github.com/xplshn/vmt/pkg/vm"
)

// ErrInvalidPop is returned for a pop that targets the constant segment.
var ErrInvalidPop = errors.New("cannot pop constant")

// Context is the per-run generator state: label and slot counters plus the
// static-index-to-slot mapping. One Context is built per translation run
// and threaded through every emission call; counters advance monotonically
// in instruction order and are never reset or reused within a run.
type Context struct {
	labelCount int
	slotCount  int
	statics    map[int]string
}

func NewContext() *Context {
	return &Context{statics: make(map[int]string)}
}

// LabelCount returns how many jump labels the run has allocated so far.
func (ctx *Context) LabelCount() int { return ctx.labelCount }

// SlotCount returns how many variable slots the run has allocated so far.
func (ctx *Context) SlotCount() int { return ctx.slotCount }

func (ctx *Context) newLabel() string {
	label := fmt.Sprintf("JMP_%d", ctx.labelCount)
	ctx.labelCount++
	return label
}

func (ctx *Context) newSlot() string {
	slot := fmt.Sprintf("V_%d", ctx.slotCount)
	ctx.slotCount++
	return slot
}

// staticSlot returns the slot backing a static index, allocating one on
// first reference. Every later reference to the same index within the run
// reuses the recorded slot without touching the counter.
func (ctx *Context) staticSlot(index int) string {
	if slot, ok := ctx.statics[index]; ok {
		return slot
	}
	slot := ctx.newSlot()
	ctx.statics[index] = slot
	return slot
}

func (ctx *Context) address(seg vm.Segment, index int) (string, error) {
	if seg == vm.Static {
		return ctx.staticSlot(index), nil
	}
	return seg.FixedBase()
}

// GenBlock emits the assembly block for one instruction, recording state
// transitions (labels, slots, static mapping) as needed. Dispatch is
// exhaustive over the instruction variants; a new variant that reaches the
// fallthrough is a programming error surfaced as an error value.
func (ctx *Context) GenBlock(ins vm.Instruction) ([]string, error) {
	switch ins := ins.(type) {
	case vm.StackMove:
		return ctx.genStackMove(ins)
	case vm.UnaryOp:
		return genUnary(ins), nil
	case vm.BinaryOp:
		return genBinary(ins), nil
	case vm.CompareOp:
		return ctx.genCompare(ins), nil
	}
	return nil, fmt.Errorf("unhandled instruction %T", ins)
}

func (ctx *Context) genStackMove(ins vm.StackMove) ([]string, error) {
	if ins.Dir == vm.Pop {
		return ctx.genPop(ins)
	}
	return ctx.genPush(ins)
}

func (ctx *Context) genPush(ins vm.StackMove) ([]string, error) {
	var asm []string

	if ins.Seg == vm.Constant {
		// the index is the value itself
		asm = append(asm, fmt.Sprintf("@%d", ins.Index), "D=A")
	} else {
		addr, err := ctx.address(ins.Seg, ins.Index)
		if err != nil {
			return nil, err
		}

		// offset the segment base by the index
		asm = append(asm, fmt.Sprintf("@%d", ins.Index), "D=A", "@"+addr)
		if ins.Seg.Indirect() {
			asm = append(asm, "A=D+M")
		} else {
			// temp and pointer are flat regions, the base is not dereferenced
			asm = append(asm, "A=D+A")
		}
		asm = append(asm, "D=M")
	}

	asm = append(asm, "@SP", "A=M", "M=D", "@SP", "M=M+1")
	return asm, nil
}

func (ctx *Context) genPop(ins vm.StackMove) ([]string, error) {
	if ins.Seg == vm.Constant {
		return nil, fmt.Errorf("%w: pop %s %d", ErrInvalidPop, ins.Seg, ins.Index)
	}

	// The target address must survive the stack-pointer decrement, so each
	// pop stashes it in a fresh slot. Slots are cheap named cells and are
	// never recycled within a run.
	slot := ctx.newSlot()
	addr, err := ctx.address(ins.Seg, ins.Index)
	if err != nil {
		return nil, err
	}

	asm := []string{fmt.Sprintf("@%d", ins.Index), "D=A", "@" + addr}
	if ins.Seg.Indirect() {
		asm = append(asm, "A=M")
	}
	asm = append(asm,
		"D=D+A",
		"@"+slot,
		"M=D",

		// pull the value off the stack
		"@SP",
		"M=M-1",
		"A=M",
		"D=M",

		// store it at the stashed address
		"@"+slot,
		"A=M",
		"M=D",
	)
	return asm, nil
}

func genUnary(ins vm.UnaryOp) []string {
	var asm []string
	var op string
	switch ins.Kind {
	case vm.Neg:
		// negate as 0 - top
		asm = append(asm, "@0", "D=A")
		op = "M=D-M"
	case vm.Not:
		op = "M=!M"
	}
	asm = append(asm, "@SP", "A=M-1", op)
	return asm
}

func genBinary(ins vm.BinaryOp) []string {
	var op string
	switch ins.Kind {
	case vm.Add:
		op = "M=D+M"
	case vm.Sub:
		// first-pushed minus second-pushed
		op = "M=M-D"
	case vm.And:
		op = "M=D&M"
	case vm.Or:
		op = "M=D|M"
	}
	return []string{"@SP", "M=M-1", "A=M", "D=M", "A=A-1", op}
}

func (ctx *Context) genCompare(ins vm.CompareOp) []string {
	var jump string
	switch ins.Kind {
	case vm.Eq:
		jump = "JEQ"
	case vm.Gt:
		jump = "JGT"
	case vm.Lt:
		jump = "JLT"
	}

	// Three fresh labels per comparison, always allocated in this order.
	match := ctx.newLabel()
	noMatch := ctx.newLabel()
	done := ctx.newLabel()

	return []string{
		// working value = first-pushed - second-pushed
		"@SP",
		"M=M-1",
		"A=M",
		"D=M",
		"A=A-1",
		"D=M-D",

		"@" + match,
		"D;" + jump,
		"@" + noMatch,
		"0;JMP",

		// true sentinel: all bits set
		"(" + match + ")",
		"@0",
		"D=A-1",
		"@" + done,
		"0;JMP",

		// false sentinel: zero, falls through to done
		"(" + noMatch + ")",
		"@0",
		"D=A",

		// overwrite the new top of stack
		"(" + done + ")",
		"@SP",
		"A=M",
		"A=A-1",
		"M=D",
	}
}
