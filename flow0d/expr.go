// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package flow0d implements lumped-parameter (0D) circulatory models: it builds
// the governing equations of a declarative chamber/vessel network as symbolic
// expressions, differentiates them analytically, and compiles both into fast
// numeric evaluators
package flow0d

import (
	"github.com/cpmech/gosl/io"
)

// Cb defines the signature of compiled scalar evaluators. Arguments are the
// unknowns x, the coupling quantities c, the time t and the values of the
// external functions (e.g. time-varying elastances)
type Cb func(x, c []float64, t float64, fnc []float64) float64

// Expr is one node of a symbolic scalar expression over the model unknowns,
// the coupling quantities, time, and external function values
type Expr interface {
	Deriv(s *Sym) Expr // analytic derivative with respect to symbol s
	Compile() Cb       // compile to a fast numeric evaluator
	String() string
}

// symbol kinds
const (
	symX   = iota // model unknown; indexes x
	symC          // coupling quantity; indexes c
	symT          // time
	symFnc        // external function value; indexes fnc
)

// Sym is a leaf symbol
type Sym struct {
	N    string // name
	kind int    // one of symX, symC, symT, symFnc
	idx  int    // index into the corresponding value slice
}

// num is a constant leaf
type num struct{ v float64 }

// binary/conditional nodes
type add struct{ a, b Expr }
type mul struct{ a, b Expr }
type div struct{ a, b Expr }

// branch evaluates to pos if cond > 0, otherwise to neg. Differentiation is
// branch-wise; the switching point itself is not differentiable
type branch struct{ cond, pos, neg Expr }

// Num returns a constant expression
func Num(v float64) Expr { return num{v} }

// NewSymX returns the symbol of unknown i
func NewSymX(name string, i int) *Sym { return &Sym{name, symX, i} }

// NewSymC returns the symbol of coupling quantity i
func NewSymC(name string, i int) *Sym { return &Sym{name, symC, i} }

// NewSymT returns the time symbol
func NewSymT() *Sym { return &Sym{"t", symT, 0} }

// NewSymFnc returns the symbol of external function value i
func NewSymFnc(name string, i int) *Sym { return &Sym{name, symFnc, i} }

// constructors fold constants so that derivative tables keep the zero entries
// of the sparse network topology as plain zero constants

// Add returns a + b
func Add(a, b Expr) Expr {
	if isZero(a) {
		return b
	}
	if isZero(b) {
		return a
	}
	if x, y, ok := bothNum(a, b); ok {
		return num{x + y}
	}
	return add{a, b}
}

// Sub returns a - b
func Sub(a, b Expr) Expr { return Add(a, Neg(b)) }

// Neg returns -a
func Neg(a Expr) Expr { return Mul(num{-1}, a) }

// Mul returns a * b
func Mul(a, b Expr) Expr {
	if isZero(a) || isZero(b) {
		return num{0}
	}
	if isOne(a) {
		return b
	}
	if isOne(b) {
		return a
	}
	if x, y, ok := bothNum(a, b); ok {
		return num{x * y}
	}
	return mul{a, b}
}

// Div returns a / b
func Div(a, b Expr) Expr {
	if isZero(a) {
		return num{0}
	}
	if isOne(b) {
		return a
	}
	if x, y, ok := bothNum(a, b); ok {
		return num{x / y}
	}
	return div{a, b}
}

// Branch returns the conditional expression: pos if cond > 0 else neg
func Branch(cond, pos, neg Expr) Expr { return branch{cond, pos, neg} }

// IsZero tells whether e is the zero constant
func IsZero(e Expr) bool { return isZero(e) }

// derivatives ////////////////////////////////////////////////////////////////

func (o num) Deriv(s *Sym) Expr { return num{0} }

func (o *Sym) Deriv(s *Sym) Expr {
	if o.kind == s.kind && o.idx == s.idx {
		return num{1}
	}
	return num{0}
}

func (o add) Deriv(s *Sym) Expr { return Add(o.a.Deriv(s), o.b.Deriv(s)) }

func (o mul) Deriv(s *Sym) Expr {
	return Add(Mul(o.a.Deriv(s), o.b), Mul(o.a, o.b.Deriv(s)))
}

func (o div) Deriv(s *Sym) Expr {
	return Div(Sub(Mul(o.a.Deriv(s), o.b), Mul(o.a, o.b.Deriv(s))), Mul(o.b, o.b))
}

func (o branch) Deriv(s *Sym) Expr {
	return Branch(o.cond, o.pos.Deriv(s), o.neg.Deriv(s))
}

// compilation ////////////////////////////////////////////////////////////////

func (o num) Compile() Cb {
	v := o.v
	return func(x, c []float64, t float64, fnc []float64) float64 { return v }
}

func (o *Sym) Compile() Cb {
	i := o.idx
	switch o.kind {
	case symX:
		return func(x, c []float64, t float64, fnc []float64) float64 { return x[i] }
	case symC:
		return func(x, c []float64, t float64, fnc []float64) float64 { return c[i] }
	case symT:
		return func(x, c []float64, t float64, fnc []float64) float64 { return t }
	}
	return func(x, c []float64, t float64, fnc []float64) float64 { return fnc[i] }
}

func (o add) Compile() Cb {
	a, b := o.a.Compile(), o.b.Compile()
	return func(x, c []float64, t float64, fnc []float64) float64 {
		return a(x, c, t, fnc) + b(x, c, t, fnc)
	}
}

func (o mul) Compile() Cb {
	a, b := o.a.Compile(), o.b.Compile()
	return func(x, c []float64, t float64, fnc []float64) float64 {
		return a(x, c, t, fnc) * b(x, c, t, fnc)
	}
}

func (o div) Compile() Cb {
	a, b := o.a.Compile(), o.b.Compile()
	return func(x, c []float64, t float64, fnc []float64) float64 {
		return a(x, c, t, fnc) / b(x, c, t, fnc)
	}
}

func (o branch) Compile() Cb {
	cond, pos, neg := o.cond.Compile(), o.pos.Compile(), o.neg.Compile()
	return func(x, c []float64, t float64, fnc []float64) float64 {
		if cond(x, c, t, fnc) > 0 {
			return pos(x, c, t, fnc)
		}
		return neg(x, c, t, fnc)
	}
}

// printing ///////////////////////////////////////////////////////////////////

func (o num) String() string  { return io.Sf("%g", o.v) }
func (o *Sym) String() string { return o.N }
func (o add) String() string  { return io.Sf("(%v + %v)", o.a, o.b) }
func (o mul) String() string  { return io.Sf("(%v * %v)", o.a, o.b) }
func (o div) String() string  { return io.Sf("(%v / %v)", o.a, o.b) }
func (o branch) String() string {
	return io.Sf("({%v > 0} ? %v : %v)", o.cond, o.pos, o.neg)
}

// auxiliary //////////////////////////////////////////////////////////////////

func isZero(e Expr) bool {
	n, ok := e.(num)
	return ok && n.v == 0
}

func isOne(e Expr) bool {
	n, ok := e.(num)
	return ok && n.v == 1
}

func bothNum(a, b Expr) (x, y float64, ok bool) {
	na, oka := a.(num)
	nb, okb := b.(num)
	if oka && okb {
		return na.v, nb.v, true
	}
	return
}
