// sieve/pkg/compiler/bytecode.go

package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"sieve/pkg/logging"
)

// Header is the fixed leading marker identifying a valid compiled program to
// the evaluator.
const Header = "_h"

// Opcode represents the type of a bytecode instruction. The numbering is the
// internal contract between this compiler and the evaluator; it must stay
// stable or previously compiled programs become unreadable.
type Opcode int

const (
	// Stack/value instructions
	OpField      Opcode = iota + 1 // 1: pop N chain keys, push the property value
	OpCallGlobal                   // 2: reserved for evaluator built-ins

	// Logical instructions
	OpAnd // 3: pop N values, push conjunction
	OpOr  // 4: pop N values, push disjunction
	OpNot // 5: pop one value, push negation

	// Arithmetic instructions (reserved for the evaluator's expression set)
	OpPlus     // 6
	OpMinus    // 7
	OpMultiply // 8
	OpDivide   // 9
	OpMod      // 10

	// Comparison instructions
	OpEq        // 11
	OpNotEq     // 12
	OpGt        // 13
	OpGtEq      // 14
	OpLt        // 15
	OpLtEq      // 16
	OpLike      // 17
	OpILike     // 18
	OpNotLike   // 19
	OpNotILike  // 20
	OpIn        // 21
	OpNotIn     // 22
	OpRegex     // 23
	OpNotRegex  // 24
	OpIRegex    // 25
	OpNotIRegex // 26
	OpInSet     // 27
	OpNotInSet  // 28

	// Literal push instructions
	OpTrue    // 29: push true
	OpFalse   // 30: push false
	OpNull    // 31: push null
	OpString  // 32: push string operand
	OpInteger // 33: push integer operand
	OpFloat   // 34: push float operand

	OpPop // 35
)

// HasOperands returns true if the opcode carries operands in the flat program.
func (op Opcode) HasOperands() bool {
	switch op {
	case OpField, OpAnd, OpOr, OpString, OpInteger, OpFloat, OpCallGlobal:
		return true
	default:
		return false
	}
}

// String returns the string representation of an opcode.
func (op Opcode) String() string {
	names := map[Opcode]string{
		OpField:      "FIELD",
		OpCallGlobal: "CALL_GLOBAL",
		OpAnd:        "AND",
		OpOr:         "OR",
		OpNot:        "NOT",
		OpPlus:       "PLUS",
		OpMinus:      "MINUS",
		OpMultiply:   "MULTIPLY",
		OpDivide:     "DIVIDE",
		OpMod:        "MOD",
		OpEq:         "EQ",
		OpNotEq:      "NOT_EQ",
		OpGt:         "GT",
		OpGtEq:       "GT_EQ",
		OpLt:         "LT",
		OpLtEq:       "LT_EQ",
		OpLike:       "LIKE",
		OpILike:      "ILIKE",
		OpNotLike:    "NOT_LIKE",
		OpNotILike:   "NOT_ILIKE",
		OpIn:         "IN",
		OpNotIn:      "NOT_IN",
		OpRegex:      "REGEX",
		OpNotRegex:   "NOT_REGEX",
		OpIRegex:     "IREGEX",
		OpNotIRegex:  "NOT_IREGEX",
		OpInSet:      "IN_SET",
		OpNotInSet:   "NOT_IN_SET",
		OpTrue:       "TRUE",
		OpFalse:      "FALSE",
		OpNull:       "NULL",
		OpString:     "STRING",
		OpInteger:    "INTEGER",
		OpFloat:      "FLOAT",
		OpPop:        "POP",
	}
	if name, ok := names[op]; ok {
		return name
	}
	logging.Logger.Warn().Int("opcode", int(op)).Msg("Unknown opcode")
	return fmt.Sprintf("Opcode(%d)", op)
}

// Instruction is one bytecode instruction: an opcode plus its literal or
// count operands, in the order they appear in the flat program.
type Instruction struct {
	Opcode   Opcode
	Operands []interface{}
}

// String returns a human-readable representation of an instruction.
func (instr Instruction) String() string {
	if len(instr.Operands) == 0 {
		return instr.Opcode.String()
	}
	parts := make([]string, 0, len(instr.Operands))
	for _, operand := range instr.Operands {
		parts = append(parts, fmt.Sprintf("%v", operand))
	}
	return fmt.Sprintf("%s %s", instr.Opcode.String(), strings.Join(parts, " "))
}

// Program is the assembled artifact: the header marker followed by every
// instruction flattened into (opcode, operands...) scalars. It marshals
// directly to the JSON transport encoding.
type Program []interface{}

// Assemble prepends the program header and flattens the instruction sequence.
// No further transformation happens here, so the header format can evolve
// independently of compilation logic.
func Assemble(instructions []Instruction) Program {
	program := Program{Header}
	for _, instr := range instructions {
		program = append(program, int(instr.Opcode))
		program = append(program, instr.Operands...)
	}
	return program
}

// Disassemble renders an instruction sequence line by line for debugging.
func Disassemble(instructions []Instruction) string {
	var sb strings.Builder
	for _, instr := range instructions {
		sb.WriteString(instr.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteProgramToFile writes the program as JSON.
func WriteProgramToFile(filename string, program Program) error {
	data, err := json.Marshal(program)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("Error marshaling program")
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		logging.Logger.Error().Err(err).Str("filename", filename).Msg("Error writing program file")
		return err
	}
	logging.Logger.Info().Str("filename", filename).Int("entries", len(program)).Msg("Successfully wrote program file")
	return nil
}

// ReadProgramFromFile reads a JSON program and checks its header marker.
func ReadProgramFromFile(filename string) (Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var program Program
	if err := json.Unmarshal(data, &program); err != nil {
		logging.Logger.Error().Err(err).Str("filename", filename).Msg("Error unmarshaling program file")
		return nil, err
	}
	if len(program) == 0 || program[0] != Header {
		return nil, fmt.Errorf("missing program header in %s", filename)
	}
	return program, nil
}
