// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// Model is implemented by all lumped circulatory models
type Model interface {

	// Init builds the model from its parameters: allocation of the solve
	// arrays, the chamber interfaces, the equation map, the symbolic
	// differentiation and the compilation, in that order
	Init(cfg *Config, prms dbf.Params) error

	// structure
	Type() string       // model name
	NumDof() int        // number of unknowns
	NumCoup() int       // number of coupling quantities
	NumAux() int        // number of auxiliary outputs
	NumFnc() int        // number of external time functions
	Vars() []string     // ordered unknown names
	Auxs() []string     // ordered auxiliary names
	CoupVars() []string // ordered coupling quantity names
	CycleLen() float64  // duration of one cycle; 0 => non-periodic model
	Theta() float64     // time-integration factor

	// coupling layout
	VIds() []int                 // unknown indices exchanged at coupling interfaces
	CIds() []int                 // coupling vector indices per interface
	CoupKind(i int) CoupQuantity // coupling quantity at interface i

	// evaluation
	EvalFncs(t float64, fnc []float64)                                             // external function values at time t
	Evaluate(x []float64, dt, t float64, df, f []float64, K [][]float64, c, a, fnc []float64) // fill requested outputs
	EvaluateCoupK(x []float64, dt, t float64, c, fnc []float64, Kc [][]float64)    // tangent w.r.t. coupling quantities
	SetPrescribedVariables(x, r []float64, K [][]float64, val float64, idx int)

	// life cycle
	Update(v, df, f, vOld, dfOld, fOld, aux, auxOld []float64)
	MidpointAvg(v, vOld, vMid []float64)
	CycleCheck(v, varTc, varTcOld []float64, t float64, cycle *int, cyclerr *float64, eps float64, aggregate bool, inioutpath string, pertAfterCycl int) bool
	InducePerturbation(kind PerturbKind, cycle, pertAfterCycl int)
	InitialFromFile(path string) (map[string]float64, error)
	SetInitial(v []float64, ini map[string]float64)
	WriteOutput(path string, t float64, v, aux []float64) error
	WriteInitial(path string, varTcOld, varTc []float64) error
}

// Base holds the machinery common to all lumped models: the symbolic
// residual/Jacobian tables, the compiled evaluators, and the cycle state
type Base struct {

	// basic data
	Kind   string  // model name
	Numdof int     // number of unknowns
	Tcycl  float64 // duration of one cycle
	Thet   float64 // time-integration factor ]0;1]

	// labeled output (insertion order == unknown index)
	Vnames []string // names of unknowns
	Anames []string // names of auxiliary outputs

	// coupling layout
	Vids []int          // variable indices for coupling
	Cids []int          // coupling quantity indices for coupling
	Cqs  []CoupQuantity // coupling quantity kind per interface

	// symbolic tables
	xsym []*Sym  // unknown symbols
	csym []*Sym  // coupling symbols
	fsym []*Sym  // external function symbols
	tsym *Sym    // time symbol
	dfx  []Expr  // rate part of equation i
	fx   []Expr  // algebraic part of equation i
	ax   []Expr  // auxiliary output i
	kdfx [][]Expr // ∂df_i/∂x_j
	kfx  [][]Expr // ∂f_i/∂x_j
	cdfx [][]Expr // ∂df_i/∂c_j
	cfx  [][]Expr // ∂f_i/∂c_j

	// compiled evaluators; kept in sync with the symbolic tables: any change
	// of the piecewise parameters forces rebuild, re-differentiation and
	// re-compilation, in that order
	dfc []Cb
	fc  []Cb
	ac  []Cb
	kdfc [][]Cb
	kfc  [][]Cb
	cdfc [][]Cb
	cfc  [][]Cb

	// cycle state
	firstOut        bool // next output write creates the files
	haveInducedPert bool // disease perturbation already fired
}

// SetSolveArrays (re)allocates the symbolic and compiled tables for numdof
// unknowns. Coupling and external function symbols are appended afterwards
// by the model's equation map
func (o *Base) SetSolveArrays(numdof int) {
	o.Numdof = numdof
	o.xsym = make([]*Sym, numdof)
	o.csym = nil
	o.fsym = nil
	o.tsym = NewSymT()
	o.dfx = make([]Expr, numdof)
	o.fx = make([]Expr, numdof)
	o.kdfx = allocExprTable(numdof)
	o.kfx = allocExprTable(numdof)
	o.dfc = make([]Cb, numdof)
	o.fc = make([]Cb, numdof)
	o.kdfc = allocCbTable(numdof)
	o.kfc = allocCbTable(numdof)
	o.firstOut = true
}

// SetAuxArrays allocates the auxiliary output table; the number of auxiliary
// quantities is independent of the number of unknowns
func (o *Base) SetAuxArrays(naux int) {
	o.ax = make([]Expr, naux)
	o.ac = make([]Cb, naux)
}

// NewX registers the symbol of unknown i
func (o *Base) NewX(name string, i int) *Sym {
	s := NewSymX(name, i)
	o.xsym[i] = s
	return s
}

// NewC appends a coupling symbol and returns it
func (o *Base) NewC(name string) *Sym {
	s := NewSymC(name, len(o.csym))
	o.csym = append(o.csym, s)
	return s
}

// NewFnc appends an external function symbol and returns it
func (o *Base) NewFnc(name string) *Sym {
	s := NewSymFnc(name, len(o.fsym))
	o.fsym = append(o.fsym, s)
	return s
}

// SetStiffness differentiates every equation with respect to every unknown,
// producing the dense symbolic Jacobian tables. Zero entries are valid and
// expected for the sparse network topology
func (o *Base) SetStiffness() {
	for i := 0; i < o.Numdof; i++ {
		for j := 0; j < o.Numdof; j++ {
			o.kdfx[i][j] = o.dfx[i].Deriv(o.xsym[j])
			o.kfx[i][j] = o.fx[i].Deriv(o.xsym[j])
		}
	}

	// derivatives w.r.t. the coupling quantities (for monolithic coupling)
	nc := len(o.csym)
	o.cdfx = make([][]Expr, o.Numdof)
	o.cfx = make([][]Expr, o.Numdof)
	o.cdfc = make([][]Cb, o.Numdof)
	o.cfc = make([][]Cb, o.Numdof)
	for i := 0; i < o.Numdof; i++ {
		o.cdfx[i] = make([]Expr, nc)
		o.cfx[i] = make([]Expr, nc)
		o.cdfc[i] = make([]Cb, nc)
		o.cfc[i] = make([]Cb, nc)
		for j := 0; j < nc; j++ {
			o.cdfx[i][j] = o.dfx[i].Deriv(o.csym[j])
			o.cfx[i][j] = o.fx[i].Deriv(o.csym[j])
		}
	}
}

// CompileExpressions compiles every symbolic expression into a fast numeric
// evaluator. This is the only place where the symbolic and numeric worlds
// meet; it must be re-invoked after any symbolic rebuild
func (o *Base) CompileExpressions() {
	for i := 0; i < o.Numdof; i++ {
		o.dfc[i] = o.dfx[i].Compile()
		o.fc[i] = o.fx[i].Compile()
	}
	for i := range o.ax {
		o.ac[i] = o.ax[i].Compile()
	}
	for i := 0; i < o.Numdof; i++ {
		for j := 0; j < o.Numdof; j++ {
			o.kdfc[i][j] = o.kdfx[i][j].Compile()
			o.kfc[i][j] = o.kfx[i][j].Compile()
		}
		for j := 0; j < len(o.csym); j++ {
			o.cdfc[i][j] = o.cdfx[i][j].Compile()
			o.cfc[i][j] = o.cfx[i][j].Compile()
		}
	}
}

// EvaluateCoupK fills the tangent of the time-discrete residual with respect
// to the coupling quantities
//  Kc[i][j] = ∂df_i/∂c_j / dt + θ ∂f_i/∂c_j
func (o *Base) EvaluateCoupK(x []float64, dt, t float64, c, fnc []float64, Kc [][]float64) {
	for i := 0; i < o.Numdof; i++ {
		for j := 0; j < len(o.csym); j++ {
			Kc[i][j] = o.cdfc[i][j](x, c, t, fnc)/dt + o.cfc[i][j](x, c, t, fnc)*o.Thet
		}
	}
}

// Evaluate evaluates the model at the current nonlinear iteration. All
// outputs are optional: a nil slice/matrix is skipped. The tangent is
//  K[i][j] = ∂df_i/∂x_j / dt + θ ∂f_i/∂x_j
func (o *Base) Evaluate(x []float64, dt, t float64, df, f []float64, K [][]float64, c, a, fnc []float64) {
	if df != nil {
		for i := 0; i < o.Numdof; i++ {
			df[i] = o.dfc[i](x, c, t, fnc)
		}
	}
	if f != nil {
		for i := 0; i < o.Numdof; i++ {
			f[i] = o.fc[i](x, c, t, fnc)
		}
	}
	if K != nil {
		for i := 0; i < o.Numdof; i++ {
			for j := 0; j < o.Numdof; j++ {
				K[i][j] = o.kdfc[i][j](x, c, t, fnc)/dt + o.kfc[i][j](x, c, t, fnc)*o.Thet
			}
		}
	}
	if a != nil {
		for i := range o.ac {
			a[i] = o.ac[i](x, c, t, fnc)
		}
	}
}

// SetPrescribedVariables enforces x[idx] = val: the residual row idx becomes
// x[idx]-val and the Jacobian row idx becomes the identity row, so the linear
// solve reproduces the prescribed value exactly
func (o *Base) SetPrescribedVariables(x, r []float64, K [][]float64, val float64, idx int) {
	r[idx] = x[idx] - val
	for j := 0; j < o.Numdof; j++ {
		if j == idx {
			K[idx][j] = 1.0
		} else {
			K[idx][j] = 0.0
		}
	}
}

// Update commits the current state into the old slot at the end of a
// converged step; the commit is unconditional and never partial
func (o *Base) Update(v, df, f, vOld, dfOld, fOld, aux, auxOld []float64) {
	for i := 0; i < o.Numdof; i++ {
		vOld[i] = v[i]
		dfOld[i] = df[i]
		fOld[i] = f[i]
	}
	copy(auxOld, aux)
}

// MidpointAvg computes the theta-weighted midpoint of the current and the
// committed values; works on the unknowns and on the auxiliary outputs alike
func (o *Base) MidpointAvg(v, vOld, vMid []float64) {
	for i := range vMid {
		vMid[i] = o.Thet*v[i] + (1.0-o.Thet)*vOld[i]
	}
}

// CheckPeriodic compares the cycle snapshots varTc and varTcOld. With
// aggregate=false every tracked variable must satisfy the relative-difference
// criterion; with aggregate=true the criterion applies to the norms
func (o *Base) CheckPeriodic(varTc, varTcOld []float64, eps float64, aggregate bool) (isPeriodic bool, cyclerr float64) {
	if aggregate {
		var num, den float64
		for i := 0; i < o.Numdof; i++ {
			d := varTc[i] - varTcOld[i]
			num += d * d
			den += varTc[i] * varTc[i]
		}
		if den < 1e-30 {
			den = 1.0
		}
		cyclerr = math.Sqrt(num / den)
		return cyclerr <= eps, cyclerr
	}
	for i := 0; i < o.Numdof; i++ {
		ref := math.Abs(varTc[i])
		if ref < 1e-30 {
			ref = 1.0
		}
		e := math.Abs(varTc[i]-varTcOld[i]) / ref
		if e > cyclerr {
			cyclerr = e
		}
	}
	return cyclerr <= eps, cyclerr
}

// CycleCheck checks for periodicity once t crosses a multiple of the cycle
// length. On a boundary it snapshots the unknowns, performs the comparison,
// optionally persists periodic initial conditions, rolls the snapshots and
// increments the cycle counter (independent of the outcome)
func (o *Base) CycleCheck(v, varTc, varTcOld []float64, t float64, cycle *int, cyclerr *float64, eps float64, aggregate bool, inioutpath string, pertAfterCycl int) (isPeriodic bool) {
	if o.Tcycl <= 0 || !ModuloIsRelativeZero(t, o.Tcycl, t) {
		return
	}
	copy(varTc, v)
	isPeriodic, *cyclerr = o.CheckPeriodic(varTc, varTcOld, eps, aggregate)

	// not periodic before we have surpassed the disease-induction cycle
	if *cycle <= pertAfterCycl {
		isPeriodic = false
	}

	// persist "periodic" initial conditions for restarting from here
	if isPeriodic && inioutpath != "" {
		err := o.WriteInitial(inioutpath, varTcOld, varTc)
		if err != nil {
			chk.Panic("cannot write periodic initial conditions:\n%v", err)
		}
	}

	copy(varTcOld, varTc)
	*cycle++
	return
}

// PerturbationPending tells whether a perturbation of the given kind still
// has to be induced once cycle > pertAfterCycl. The internal flag makes the
// induction one-shot
func (o *Base) PerturbationPending(kind PerturbKind, cycle, pertAfterCycl int) bool {
	if kind == PerturbNone || pertAfterCycl <= 0 || o.haveInducedPert {
		return false
	}
	if cycle <= pertAfterCycl {
		return false
	}
	io.Pf(">>> Induced cardiovascular disease type: %s\n", kind)
	o.haveInducedPert = true
	return true
}

// accessors //////////////////////////////////////////////////////////////////

func (o *Base) Type() string      { return o.Kind }
func (o *Base) NumDof() int       { return o.Numdof }
func (o *Base) NumCoup() int      { return len(o.csym) }
func (o *Base) NumAux() int       { return len(o.ax) }
func (o *Base) NumFnc() int       { return len(o.fsym) }
func (o *Base) Vars() []string    { return o.Vnames }
func (o *Base) Auxs() []string    { return o.Anames }
func (o *Base) CycleLen() float64 { return o.Tcycl }
func (o *Base) Theta() float64    { return o.Thet }
func (o *Base) VIds() []int       { return o.Vids }
func (o *Base) CIds() []int       { return o.Cids }

// CoupVars returns the ordered names of the coupling quantities
func (o *Base) CoupVars() (names []string) {
	names = make([]string, len(o.csym))
	for i, s := range o.csym {
		names[i] = s.N
	}
	return
}

// CoupKind returns the coupling quantity at interface i
func (o *Base) CoupKind(i int) CoupQuantity {
	if i < len(o.Cqs) {
		return o.Cqs[i]
	}
	return CqVolume
}

// VarIndex returns the index of the named unknown, or -1
func (o *Base) VarIndex(name string) int {
	for i, n := range o.Vnames {
		if n == name {
			return i
		}
	}
	return -1
}

// auxiliary //////////////////////////////////////////////////////////////////

// IsRelativeEqualTo compares A to B with respect to Ref
func IsRelativeEqualTo(A, B, Ref float64) bool {
	return math.Abs(A-B)/Ref < 1e-12
}

// ModuloIsRelativeZero checks whether value modulo T is near zero
func ModuloIsRelativeZero(value, modulo, Ref float64) bool {
	return IsRelativeEqualTo(math.Mod(value+modulo/2.0, modulo)-modulo/2.0, 0.0, Ref)
}

func allocExprTable(n int) [][]Expr {
	tab := make([][]Expr, n)
	for i := range tab {
		tab[i] = make([]Expr, n)
	}
	return tab
}

func allocCbTable(n int) [][]Cb {
	tab := make([][]Cb, n)
	for i := range tab {
		tab[i] = make([]Cb, n)
	}
	return tab
}
