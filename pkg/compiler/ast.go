// sieve/pkg/compiler/ast.go
package compiler

// Expr is a node in the boolean expression tree the builder produces and the
// code generator consumes.
type Expr interface {
	isExpr()
}

// Constant is a literal value: string, int64, float64, bool or nil.
type Constant struct {
	Value interface{}
}

// Field is a property access path on the record under evaluation, e.g.
// [properties url] or [person properties email].
type Field struct {
	Chain []string
}

// Compare applies a comparison opcode to (Left, Right). The resolver picks a
// single-instruction encoding for negated operators, so Op may be any of the
// comparison opcodes including the negated variants.
type Compare struct {
	Op    Opcode
	Left  Expr
	Right Expr
}

// Not inverts its operand.
type Not struct {
	Expr Expr
}

// And is an n-ary conjunction. Operand count is carried explicitly in the
// emitted combinator instruction, so any arity encodes identically.
type And struct {
	Exprs []Expr
}

// Or is an n-ary disjunction.
type Or struct {
	Exprs []Expr
}

func (*Constant) isExpr() {}
func (*Field) isExpr()    {}
func (*Compare) isExpr()  {}
func (*Not) isExpr()      {}
func (*And) isExpr()      {}
func (*Or) isExpr()       {}
