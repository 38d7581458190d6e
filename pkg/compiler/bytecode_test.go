// sieve/pkg/compiler/bytecode_test.go

package compiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleHeader(t *testing.T) {
	program := Assemble(nil)
	assert.Equal(t, Program{Header}, program)

	program = Assemble([]Instruction{{Opcode: OpTrue}})
	assert.Equal(t, Program{Header, int(OpTrue)}, program)
}

func TestAssembleFlattensOperands(t *testing.T) {
	instructions := []Instruction{
		{Opcode: OpString, Operands: []interface{}{"docs"}},
		{Opcode: OpField, Operands: []interface{}{1}},
		{Opcode: OpAnd, Operands: []interface{}{2}},
	}
	program := Assemble(instructions)
	assert.Equal(t, Program{Header, 32, "docs", 1, 1, 3, 2}, program)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "FIELD", OpField.String())
	assert.Equal(t, "AND", OpAnd.String())
	assert.Equal(t, "NOT_ILIKE", OpNotILike.String())
	assert.Equal(t, "TRUE", OpTrue.String())
	assert.Equal(t, "Opcode(99)", Opcode(99).String())
}

func TestOpcodeNumberingContract(t *testing.T) {
	// The evaluator depends on these exact values; renumbering breaks every
	// compiled program in the wild
	assert.Equal(t, 1, int(OpField))
	assert.Equal(t, 3, int(OpAnd))
	assert.Equal(t, 4, int(OpOr))
	assert.Equal(t, 5, int(OpNot))
	assert.Equal(t, 11, int(OpEq))
	assert.Equal(t, 17, int(OpLike))
	assert.Equal(t, 18, int(OpILike))
	assert.Equal(t, 20, int(OpNotILike))
	assert.Equal(t, 23, int(OpRegex))
	assert.Equal(t, 29, int(OpTrue))
	assert.Equal(t, 32, int(OpString))
	assert.Equal(t, 33, int(OpInteger))
	assert.Equal(t, 34, int(OpFloat))
}

func TestInstructionString(t *testing.T) {
	instr := Instruction{Opcode: OpString, Operands: []interface{}{"%docs%"}}
	assert.Equal(t, "STRING %docs%", instr.String())

	instr = Instruction{Opcode: OpAnd, Operands: []interface{}{2}}
	assert.Equal(t, "AND 2", instr.String())

	instr = Instruction{Opcode: OpEq}
	assert.Equal(t, "EQ", instr.String())
}

func TestDisassemble(t *testing.T) {
	instructions := []Instruction{
		{Opcode: OpString, Operands: []interface{}{"docs"}},
		{Opcode: OpEq},
	}
	assert.Equal(t, "STRING docs\nEQ\n", Disassemble(instructions))
}

func TestWriteAndReadProgramFile(t *testing.T) {
	program := Program{Header, 32, "%docs%", 32, "url", 32, "properties", 1, 2, 18}
	filename := filepath.Join(t.TempDir(), "program.json")

	err := WriteProgramToFile(filename, program)
	require.NoError(t, err)

	loaded, err := ReadProgramFromFile(filename)
	require.NoError(t, err)

	// JSON round-tripping turns the numeric entries into float64
	expected := Program{Header, float64(32), "%docs%", float64(32), "url", float64(32), "properties", float64(1), float64(2), float64(18)}
	assert.Equal(t, expected, loaded)
}

func TestReadProgramFileRejectsMissingHeader(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "program.json")
	require.NoError(t, WriteProgramToFile(filename, Program{32, "docs"}))

	_, err := ReadProgramFromFile(filename)
	assert.ErrorContains(t, err, "missing program header")
}
