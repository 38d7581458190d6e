// sieve/pkg/compiler/codegen.go

package compiler

import (
	"fmt"
	"math"

	"sieve/pkg/logging"
)

// Compile runs the whole pipeline: build the expression tree, generate the
// instruction sequence, assemble the program. It is a pure function of its
// inputs; concurrent compilations share no state.
func Compile(spec *FilterSpec, actions map[int64]*Action, testFilters []PropertyFilter) (Program, error) {
	expr, err := BuildFilterExpr(spec, actions, testFilters)
	if err != nil {
		return nil, err
	}
	instructions, err := GenerateInstructions(expr)
	if err != nil {
		return nil, err
	}
	program := Assemble(instructions)
	logging.Logger.Debug().Int("instructions", len(instructions)).Int("entries", len(program)).Msg("Compilation complete")
	return program, nil
}

// GenerateInstructions emits stack-machine instructions for the expression
// tree in post-order: operands land on the stack before the instruction that
// consumes them. Multi-operand nodes are emitted in reverse so the evaluator
// pops them back in declaration order; this ordering is load-bearing for
// byte-stable output.
func GenerateInstructions(expr Expr) ([]Instruction, error) {
	var instructions []Instruction
	if err := emit(expr, &instructions); err != nil {
		return nil, err
	}
	return instructions, nil
}

func emit(expr Expr, out *[]Instruction) error {
	switch node := expr.(type) {
	case *Constant:
		return emitConstant(node.Value, out)
	case *Field:
		for i := len(node.Chain) - 1; i >= 0; i-- {
			*out = append(*out, Instruction{Opcode: OpString, Operands: []interface{}{node.Chain[i]}})
		}
		*out = append(*out, Instruction{Opcode: OpField, Operands: []interface{}{len(node.Chain)}})
		return nil
	case *Compare:
		if err := emit(node.Right, out); err != nil {
			return err
		}
		if err := emit(node.Left, out); err != nil {
			return err
		}
		*out = append(*out, Instruction{Opcode: node.Op})
		return nil
	case *Not:
		if err := emit(node.Expr, out); err != nil {
			return err
		}
		*out = append(*out, Instruction{Opcode: OpNot})
		return nil
	case *And:
		for i := len(node.Exprs) - 1; i >= 0; i-- {
			if err := emit(node.Exprs[i], out); err != nil {
				return err
			}
		}
		*out = append(*out, Instruction{Opcode: OpAnd, Operands: []interface{}{len(node.Exprs)}})
		return nil
	case *Or:
		for i := len(node.Exprs) - 1; i >= 0; i-- {
			if err := emit(node.Exprs[i], out); err != nil {
				return err
			}
		}
		*out = append(*out, Instruction{Opcode: OpOr, Operands: []interface{}{len(node.Exprs)}})
		return nil
	default:
		return fmt.Errorf("unknown expression node %T", expr)
	}
}

// emitConstant pushes one literal. Integral numbers emit INTEGER even when
// JSON decoding handed us a float64, fractional ones emit FLOAT.
func emitConstant(value interface{}, out *[]Instruction) error {
	switch v := value.(type) {
	case string:
		*out = append(*out, Instruction{Opcode: OpString, Operands: []interface{}{v}})
	case bool:
		if v {
			*out = append(*out, Instruction{Opcode: OpTrue})
		} else {
			*out = append(*out, Instruction{Opcode: OpFalse})
		}
	case nil:
		*out = append(*out, Instruction{Opcode: OpNull})
	case int:
		*out = append(*out, Instruction{Opcode: OpInteger, Operands: []interface{}{v}})
	case int64:
		*out = append(*out, Instruction{Opcode: OpInteger, Operands: []interface{}{int(v)}})
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			*out = append(*out, Instruction{Opcode: OpInteger, Operands: []interface{}{int(v)}})
		} else {
			*out = append(*out, Instruction{Opcode: OpFloat, Operands: []interface{}{v}})
		}
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}
