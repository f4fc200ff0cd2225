// Package emu is a small interpreter for the Hack machine, just capable
// enough to execute translator output in tests: A/D registers, 32K RAM,
// symbolic A-instructions and the full C-instruction comp/dest/jump table.
package emu

import (
	"fmt"
	"strconv"
	"strings"
)

// MemSize covers RAM[0..16383], the screen map and the keyboard register.
const MemSize = 24577

type instruction struct {
	isA  bool
	addr int16
	dest string
	comp string
	jump string
}

type Machine struct {
	A, D int16
	PC   int
	RAM  [MemSize]int16

	rom     []instruction
	symbols map[string]int16
	nextVar int16
}

func New() *Machine {
	m := &Machine{
		symbols: map[string]int16{
			"SP":     0,
			"LCL":    1,
			"ARG":    2,
			"THIS":   3,
			"THAT":   4,
			"SCREEN": 16384,
			"KBD":    24576,
		},
		nextVar: 16,
	}
	for i := int16(0); i < 16; i++ {
		m.symbols[fmt.Sprintf("R%d", i)] = i
	}
	return m
}

// Load assembles the given assembly lines into the machine's ROM. Two
// passes: labels first so forward references resolve, then instructions,
// allocating variable symbols from address 16 upward.
func (m *Machine) Load(lines []string) error {
	var code []string
	pc := 0
	for _, raw := range lines {
		line := raw
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "(") {
			if !strings.HasSuffix(line, ")") {
				return fmt.Errorf("emu: malformed label declaration %q", raw)
			}
			name := line[1 : len(line)-1]
			if name == "" {
				return fmt.Errorf("emu: empty label declaration %q", raw)
			}
			m.symbols[name] = int16(pc)
			continue
		}
		code = append(code, line)
		pc++
	}

	for _, line := range code {
		if sym, ok := strings.CutPrefix(line, "@"); ok {
			if n, err := strconv.Atoi(sym); err == nil {
				m.rom = append(m.rom, instruction{isA: true, addr: int16(n)})
				continue
			}
			addr, ok := m.symbols[sym]
			if !ok {
				addr = m.nextVar
				m.nextVar++
				m.symbols[sym] = addr
			}
			m.rom = append(m.rom, instruction{isA: true, addr: addr})
			continue
		}

		var ins instruction
		rest := line
		if i := strings.Index(rest, "="); i >= 0 {
			ins.dest = strings.TrimSpace(rest[:i])
			rest = rest[i+1:]
		}
		if i := strings.Index(rest, ";"); i >= 0 {
			ins.jump = strings.TrimSpace(rest[i+1:])
			rest = rest[:i]
		}
		ins.comp = strings.TrimSpace(rest)
		m.rom = append(m.rom, ins)
	}
	return nil
}

// SymbolAddr reports the resolved address of a symbol, if any.
func (m *Machine) SymbolAddr(name string) (int16, bool) {
	addr, ok := m.symbols[name]
	return addr, ok
}

// Step executes one instruction. Running past the end of ROM is the halt
// condition for translator output, which contains no end loop.
func (m *Machine) Step() error {
	if m.PC < 0 || m.PC >= len(m.rom) {
		return fmt.Errorf("emu: PC %d outside ROM", m.PC)
	}
	ins := m.rom[m.PC]
	if ins.isA {
		m.A = ins.addr
		m.PC++
		return nil
	}

	val, err := m.eval(ins.comp)
	if err != nil {
		return err
	}

	// The M write addresses the A register as it was before this
	// instruction, even when A is also a destination.
	oldA := m.A
	if strings.ContainsRune(ins.dest, 'M') {
		if oldA < 0 || int(oldA) >= MemSize {
			return fmt.Errorf("emu: write to RAM[%d] out of range", oldA)
		}
		m.RAM[oldA] = val
	}
	if strings.ContainsRune(ins.dest, 'A') {
		m.A = val
	}
	if strings.ContainsRune(ins.dest, 'D') {
		m.D = val
	}

	if ins.jump != "" && jumpTaken(ins.jump, val) {
		m.PC = int(m.A)
	} else {
		m.PC++
	}
	return nil
}

// Run steps until the PC runs off the end of ROM, erroring out if that
// does not happen within maxSteps.
func (m *Machine) Run(maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		if m.PC >= len(m.rom) {
			return nil
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return fmt.Errorf("emu: still running after %d steps", maxSteps)
}

func (m *Machine) mem() (int16, error) {
	if m.A < 0 || int(m.A) >= MemSize {
		return 0, fmt.Errorf("emu: read of RAM[%d] out of range", m.A)
	}
	return m.RAM[m.A], nil
}

func (m *Machine) eval(comp string) (int16, error) {
	a, d := m.A, m.D
	switch comp {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	case "-1":
		return -1, nil
	case "D":
		return d, nil
	case "A":
		return a, nil
	case "!D":
		return ^d, nil
	case "!A":
		return ^a, nil
	case "-D":
		return -d, nil
	case "-A":
		return -a, nil
	case "D+1":
		return d + 1, nil
	case "A+1":
		return a + 1, nil
	case "D-1":
		return d - 1, nil
	case "A-1":
		return a - 1, nil
	case "D+A":
		return d + a, nil
	case "D-A":
		return d - a, nil
	case "A-D":
		return a - d, nil
	case "D&A":
		return d & a, nil
	case "D|A":
		return d | a, nil
	}

	mem, err := m.mem()
	if err != nil {
		return 0, err
	}
	switch comp {
	case "M":
		return mem, nil
	case "!M":
		return ^mem, nil
	case "-M":
		return -mem, nil
	case "M+1":
		return mem + 1, nil
	case "M-1":
		return mem - 1, nil
	case "D+M":
		return d + mem, nil
	case "D-M":
		return d - mem, nil
	case "M-D":
		return mem - d, nil
	case "D&M":
		return d & mem, nil
	case "D|M":
		return d | mem, nil
	}
	return 0, fmt.Errorf("emu: unknown computation %q", comp)
}

func jumpTaken(jump string, val int16) bool {
	switch jump {
	case "JGT":
		return val > 0
	case "JEQ":
		return val == 0
	case "JGE":
		return val >= 0
	case "JLT":
		return val < 0
	case "JNE":
		return val != 0
	case "JLE":
		return val <= 0
	case "JMP":
		return true
	}
	return false
}
