package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/vmt/pkg/vm"
)

func TestGenPushConstant(t *testing.T) {
	ctx := NewContext()
	got, err := ctx.GenBlock(vm.StackMove{Dir: vm.Push, Seg: vm.Constant, Index: 17})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}
	want := []string{"@17", "D=A", "@SP", "A=M", "M=D", "@SP", "M=M+1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("push constant 17 mismatch (-want +got):\n%s", diff)
	}
	if ctx.SlotCount() != 0 || ctx.LabelCount() != 0 {
		t.Errorf("push constant consumed state: slots=%d labels=%d", ctx.SlotCount(), ctx.LabelCount())
	}
}

func TestGenPushIndirectAndDirect(t *testing.T) {
	tests := []struct {
		name string
		ins  vm.StackMove
		want []string
	}{
		{
			"local is dereferenced",
			vm.StackMove{Dir: vm.Push, Seg: vm.Local, Index: 2},
			[]string{"@2", "D=A", "@LCL", "A=D+M", "D=M", "@SP", "A=M", "M=D", "@SP", "M=M+1"},
		},
		{
			"temp is a flat region",
			vm.StackMove{Dir: vm.Push, Seg: vm.Temp, Index: 3},
			[]string{"@3", "D=A", "@5", "A=D+A", "D=M", "@SP", "A=M", "M=D", "@SP", "M=M+1"},
		},
		{
			"pointer is a flat region",
			vm.StackMove{Dir: vm.Push, Seg: vm.Pointer, Index: 1},
			[]string{"@1", "D=A", "@3", "A=D+A", "D=M", "@SP", "A=M", "M=D", "@SP", "M=M+1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewContext().GenBlock(tc.ins)
			if err != nil {
				t.Fatalf("GenBlock: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenPop(t *testing.T) {
	ctx := NewContext()
	got, err := ctx.GenBlock(vm.StackMove{Dir: vm.Pop, Seg: vm.Argument, Index: 4})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}
	want := []string{
		"@4", "D=A", "@ARG", "A=M", "D=D+A",
		"@V_0", "M=D",
		"@SP", "M=M-1", "A=M", "D=M",
		"@V_0", "A=M", "M=D",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pop argument 4 mismatch (-want +got):\n%s", diff)
	}

	// temp pops skip the dereference
	got, err = ctx.GenBlock(vm.StackMove{Dir: vm.Pop, Seg: vm.Temp, Index: 6})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}
	want = []string{
		"@6", "D=A", "@5", "D=D+A",
		"@V_1", "M=D",
		"@SP", "M=M-1", "A=M", "D=M",
		"@V_1", "A=M", "M=D",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pop temp 6 mismatch (-want +got):\n%s", diff)
	}
}

func TestGenPopConstantFails(t *testing.T) {
	ctx := NewContext()
	got, err := ctx.GenBlock(vm.StackMove{Dir: vm.Pop, Seg: vm.Constant, Index: 0})
	if !errors.Is(err, ErrInvalidPop) {
		t.Fatalf("pop constant err = %v; want ErrInvalidPop", err)
	}
	if got != nil {
		t.Errorf("pop constant produced output: %v", got)
	}
	if ctx.SlotCount() != 0 {
		t.Errorf("pop constant consumed a slot: slots=%d", ctx.SlotCount())
	}
}

// Every pop consumes exactly one fresh slot; k pops advance the counter by k.
func TestPopSlotAllocation(t *testing.T) {
	ctx := NewContext()
	pops := []vm.StackMove{
		{Dir: vm.Pop, Seg: vm.Local, Index: 0},
		{Dir: vm.Pop, Seg: vm.Temp, Index: 1},
		{Dir: vm.Pop, Seg: vm.That, Index: 2},
		{Dir: vm.Pop, Seg: vm.Pointer, Index: 0},
		{Dir: vm.Pop, Seg: vm.Argument, Index: 3},
	}
	seen := make(map[string]bool)
	for k, ins := range pops {
		before := ctx.SlotCount()
		block, err := ctx.GenBlock(ins)
		if err != nil {
			t.Fatalf("GenBlock(%v): %v", ins, err)
		}
		if ctx.SlotCount() != before+1 {
			t.Errorf("pop %d advanced slot counter by %d; want 1", k, ctx.SlotCount()-before)
		}
		slot := findSlotRef(t, block)
		if seen[slot] {
			t.Errorf("slot %q reused across pops", slot)
		}
		seen[slot] = true
	}
	if ctx.SlotCount() != len(pops) {
		t.Errorf("slot counter = %d after %d pops", ctx.SlotCount(), len(pops))
	}
}

func TestStaticSlots(t *testing.T) {
	ctx := NewContext()

	first, err := ctx.GenBlock(vm.StackMove{Dir: vm.Push, Seg: vm.Static, Index: 3})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}
	again, err := ctx.GenBlock(vm.StackMove{Dir: vm.Push, Seg: vm.Static, Index: 3})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}
	other, err := ctx.GenBlock(vm.StackMove{Dir: vm.Push, Seg: vm.Static, Index: 4})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}

	slot3, slot3again, slot4 := findSlotRef(t, first), findSlotRef(t, again), findSlotRef(t, other)
	if slot3 != slot3again {
		t.Errorf("static 3 resolved to %q then %q; want the same slot", slot3, slot3again)
	}
	if slot3 == slot4 {
		t.Errorf("static 3 and static 4 share slot %q", slot3)
	}
	if ctx.SlotCount() != 2 {
		t.Errorf("slot counter = %d after two distinct static indices; want 2", ctx.SlotCount())
	}
}

// Label triples from distinct comparisons never overlap.
func TestCompareLabelsDisjoint(t *testing.T) {
	ctx := NewContext()
	kinds := []vm.CompareOp{{Kind: vm.Eq}, {Kind: vm.Lt}, {Kind: vm.Gt}, {Kind: vm.Eq}}
	seen := make(map[string]int)
	for i, ins := range kinds {
		before := ctx.LabelCount()
		block, err := ctx.GenBlock(ins)
		if err != nil {
			t.Fatalf("GenBlock(%v): %v", ins, err)
		}
		if ctx.LabelCount() != before+3 {
			t.Errorf("comparison %d allocated %d labels; want 3", i, ctx.LabelCount()-before)
		}
		for _, line := range block {
			if strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")") {
				label := line[1 : len(line)-1]
				if prev, dup := seen[label]; dup {
					t.Errorf("label %q declared by comparisons %d and %d", label, prev, i)
				}
				seen[label] = i
			}
		}
	}
	if len(seen) != 3*len(kinds) {
		t.Errorf("declared %d labels; want %d", len(seen), 3*len(kinds))
	}
}

func TestGenCompareShape(t *testing.T) {
	ctx := NewContext()
	got, err := ctx.GenBlock(vm.CompareOp{Kind: vm.Lt})
	if err != nil {
		t.Fatalf("GenBlock: %v", err)
	}
	want := []string{
		"@SP", "M=M-1", "A=M", "D=M",
		"A=A-1", "D=M-D",
		"@JMP_0", "D;JLT",
		"@JMP_1", "0;JMP",
		"(JMP_0)", "@0", "D=A-1", "@JMP_2", "0;JMP",
		"(JMP_1)", "@0", "D=A",
		"(JMP_2)", "@SP", "A=M", "A=A-1", "M=D",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lt mismatch (-want +got):\n%s", diff)
	}
}

func TestGenUnaryAndBinaryShapes(t *testing.T) {
	tests := []struct {
		ins  vm.Instruction
		want []string
	}{
		{vm.UnaryOp{Kind: vm.Neg}, []string{"@0", "D=A", "@SP", "A=M-1", "M=D-M"}},
		{vm.UnaryOp{Kind: vm.Not}, []string{"@SP", "A=M-1", "M=!M"}},
		{vm.BinaryOp{Kind: vm.Add}, []string{"@SP", "M=M-1", "A=M", "D=M", "A=A-1", "M=D+M"}},
		{vm.BinaryOp{Kind: vm.Sub}, []string{"@SP", "M=M-1", "A=M", "D=M", "A=A-1", "M=M-D"}},
		{vm.BinaryOp{Kind: vm.And}, []string{"@SP", "M=M-1", "A=M", "D=M", "A=A-1", "M=D&M"}},
		{vm.BinaryOp{Kind: vm.Or}, []string{"@SP", "M=M-1", "A=M", "D=M", "A=A-1", "M=D|M"}},
	}
	for _, tc := range tests {
		got, err := NewContext().GenBlock(tc.ins)
		if err != nil {
			t.Fatalf("GenBlock(%v): %v", tc.ins, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%v mismatch (-want +got):\n%s", tc.ins, diff)
		}
	}
}

// Every instruction variant must be handled by the dispatch switch.
func TestDispatchIsExhaustive(t *testing.T) {
	variants := []vm.Instruction{
		vm.StackMove{Dir: vm.Push, Seg: vm.Constant, Index: 1},
		vm.UnaryOp{Kind: vm.Neg},
		vm.BinaryOp{Kind: vm.Add},
		vm.CompareOp{Kind: vm.Eq},
	}
	for _, ins := range variants {
		block, err := NewContext().GenBlock(ins)
		if err != nil {
			t.Errorf("GenBlock(%T) error: %v", ins, err)
		}
		if len(block) == 0 {
			t.Errorf("GenBlock(%T) emitted nothing", ins)
		}
	}
}

func findSlotRef(t *testing.T, block []string) string {
	t.Helper()
	for _, line := range block {
		if strings.HasPrefix(line, "@V_") {
			return line[1:]
		}
	}
	t.Fatalf("no slot reference in block %v", block)
	return ""
}
