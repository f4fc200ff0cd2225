package vm

import (
	"errors"
	"fmt"
)

// Segment is one of the eight virtual memory regions a stack move may
// reference.
type Segment int

const (
	Constant Segment = iota
	Local
	Argument
	This
	That
	Temp
	Pointer
	Static
)

var segmentNames = map[Segment]string{
	Constant: "constant",
	Local:    "local",
	Argument: "argument",
	This:     "this",
	That:     "that",
	Temp:     "temp",
	Pointer:  "pointer",
	Static:   "static",
}

var segmentsByName = make(map[string]Segment)

func init() {
	for seg, name := range segmentNames {
		segmentsByName[name] = seg
	}
}

func SegmentByName(name string) (Segment, bool) {
	seg, ok := segmentsByName[name]
	return seg, ok
}

func (s Segment) String() string {
	if name, ok := segmentNames[s]; ok {
		return name
	}
	return fmt.Sprintf("segment(%d)", int(s))
}

// ErrContextualAddress is returned when a segment with no fixed address is
// resolved through the fixed-address path.
var ErrContextualAddress = errors.New("segment address is contextual")

// FixedBase resolves a segment to the symbol or numeric base the generated
// code addresses it through. Constant has no address at all, and Static is
// backed by slots the code generator allocates, so neither resolves here.
func (s Segment) FixedBase() (string, error) {
	switch s {
	case Local:
		return "LCL", nil
	case Argument:
		return "ARG", nil
	case This:
		return "THIS", nil
	case That:
		return "THAT", nil
	case Temp:
		return "5", nil
	case Pointer:
		return "3", nil
	case Static:
		return "", fmt.Errorf("static: %w, only the code generator can allocate its slot", ErrContextualAddress)
	case Constant:
		return "", fmt.Errorf("constant: %w, it has no address", ErrContextualAddress)
	}
	return "", fmt.Errorf("unknown segment %d", int(s))
}

// Indirect reports whether the segment's base symbol holds a pointer that
// must be dereferenced before adding the index. Temp and Pointer are flat
// fixed regions: their base is the target region itself.
func (s Segment) Indirect() bool {
	switch s {
	case Local, Argument, This, That, Static:
		return true
	}
	return false
}

type Direction int

const (
	Push Direction = iota
	Pop
)

func (d Direction) String() string {
	if d == Pop {
		return "pop"
	}
	return "push"
}

// Instruction is the closed set of parsed VM commands. Each variant is
// immutable once built.
type Instruction interface {
	isInstruction()
	String() string
}

// StackMove is a push or pop against a segment and index.
type StackMove struct {
	Dir   Direction
	Seg   Segment
	Index int
}

type UnaryKind int

const (
	Neg UnaryKind = iota
	Not
)

type UnaryOp struct{ Kind UnaryKind }

type BinaryKind int

const (
	Add BinaryKind = iota
	Sub
	And
	Or
)

type BinaryOp struct{ Kind BinaryKind }

type CompareKind int

const (
	Eq CompareKind = iota
	Lt
	Gt
)

type CompareOp struct{ Kind CompareKind }

func (StackMove) isInstruction() {}
func (UnaryOp) isInstruction()   {}
func (BinaryOp) isInstruction()  {}
func (CompareOp) isInstruction() {}

func (i StackMove) String() string {
	return fmt.Sprintf("%s %s %d", i.Dir, i.Seg, i.Index)
}

func (i UnaryOp) String() string {
	if i.Kind == Not {
		return "not"
	}
	return "neg"
}

func (i BinaryOp) String() string {
	switch i.Kind {
	case Sub:
		return "sub"
	case And:
		return "and"
	case Or:
		return "or"
	}
	return "add"
}

func (i CompareOp) String() string {
	switch i.Kind {
	case Lt:
		return "lt"
	case Gt:
		return "gt"
	}
	return "eq"
}
