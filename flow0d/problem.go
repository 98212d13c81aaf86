// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/la"
)

// Problem bundles a lumped model with its numeric state. The model owns the
// symbolic system; the problem owns the arrays the time stepper and the
// nonlinear solver work on
type Problem struct {

	// model
	Mdl Model

	// current state
	S   []float64 // unknowns
	DF  []float64 // rate part of the equations
	F   []float64 // algebraic part of the equations
	Aux []float64 // auxiliary outputs

	// committed state (end of last converged step)
	SOld   []float64
	DFOld  []float64
	FOld   []float64
	AuxOld []float64

	// theta-midpoint state for the raw output
	SMid   []float64
	AuxMid []float64

	// work arrays
	R   []float64   // nonlinear residual
	K   [][]float64 // dense tangent
	KC  [][]float64 // tangent w.r.t. coupling quantities
	C   []float64   // coupling quantities
	Fnc []float64   // external function values

	// cycle bookkeeping
	VarTc    []float64 // snapshot at the last cycle boundary
	VarTcOld []float64 // snapshot one cycle before
	Cycle    int       // current cycle number
	CycleErr float64   // last periodicity error

	// periodicity and disease settings
	EpsPeriodic  float64     // periodicity threshold
	Aggregate    bool        // aggregate (norm-wise) periodicity criterion
	Perturb      PerturbKind // disease perturbation to induce
	PerturbCycle int         // induce after this many cycles

	// prescribed unknowns: index into S -> time curve
	Prescribed map[int]fun.Func
}

// NewProblem allocates the numeric state for the given model
func NewProblem(mdl Model) (o *Problem) {
	n := mdl.NumDof()
	o = &Problem{
		Mdl:      mdl,
		S:        make([]float64, n),
		DF:       make([]float64, n),
		F:        make([]float64, n),
		Aux:      make([]float64, mdl.NumAux()),
		SOld:     make([]float64, n),
		DFOld:    make([]float64, n),
		FOld:     make([]float64, n),
		AuxOld:   make([]float64, mdl.NumAux()),
		SMid:     make([]float64, n),
		AuxMid:   make([]float64, mdl.NumAux()),
		R:        make([]float64, n),
		K:        la.MatAlloc(n, n),
		KC:       la.MatAlloc(n, mdl.NumCoup()),
		C:        make([]float64, mdl.NumCoup()),
		Fnc:      make([]float64, mdl.NumFnc()),
		VarTc:    make([]float64, n),
		VarTcOld: make([]float64, n),
		Cycle:    1,
	}
	return
}

// SetInitial seeds the committed state; the current state starts equal to it
func (o *Problem) SetInitial(ini map[string]float64) {
	o.Mdl.SetInitial(o.SOld, ini)
	copy(o.S, o.SOld)
	copy(o.VarTcOld, o.SOld)
}

// SetInitialFromFile seeds the committed state from a named-value text file
func (o *Problem) SetInitialFromFile(path string) (err error) {
	ini, err := o.Mdl.InitialFromFile(path)
	if err != nil {
		return
	}
	o.SetInitial(ini)
	return
}

// SetPrescribed resolves named prescribed unknowns into index->curve pairs
func (o *Problem) SetPrescribed(vars map[string]fun.Func) (err error) {
	if len(vars) == 0 {
		return
	}
	o.Prescribed = make(map[int]fun.Func)
	for name, crv := range vars {
		idx := o.Mdl.VarIndex(name)
		if idx < 0 {
			return chk.Err("cannot prescribe unknown variable %q", name)
		}
		o.Prescribed[idx] = crv
	}
	return
}

// EvaluateOld computes the committed rate and algebraic parts from the
// committed state. Must be called once before the first step so that the
// time-discrete residual sees consistent history
func (o *Problem) EvaluateOld(dt, t float64) {
	o.Mdl.EvalFncs(t, o.Fnc)
	o.Mdl.Evaluate(o.SOld, dt, t, o.DFOld, o.FOld, nil, o.C, o.AuxOld, o.Fnc)
	copy(o.Aux, o.AuxOld)
}

// Residual evaluates the model at the current iterate and assembles the
// time-discrete residual and tangent
//  r_i = (df_i - df_i^old)/dt + θ f_i + (1-θ) f_i^old
func (o *Problem) Residual(dt, t float64) {
	θ := o.Mdl.Theta()
	o.Mdl.EvalFncs(t, o.Fnc)
	o.Mdl.Evaluate(o.S, dt, t, o.DF, o.F, o.K, o.C, o.Aux, o.Fnc)
	for i := 0; i < o.Mdl.NumDof(); i++ {
		o.R[i] = (o.DF[i]-o.DFOld[i])/dt + θ*o.F[i] + (1.0-θ)*o.FOld[i]
	}
	for idx, crv := range o.Prescribed {
		o.Mdl.SetPrescribedVariables(o.S, o.R, o.K, crv.F(t, nil), idx)
	}
}

// CoupK evaluates the tangent of the time-discrete residual with respect to
// the coupling quantities at the current iterate
func (o *Problem) CoupK(dt, t float64) {
	o.Mdl.EvaluateCoupK(o.S, dt, t, o.C, o.Fnc, o.KC)
}

// UpdateHistory commits the current state after a converged step
func (o *Problem) UpdateHistory() {
	o.Mdl.Update(o.S, o.DF, o.F, o.SOld, o.DFOld, o.FOld, o.Aux, o.AuxOld)
}

// CycleCheck performs the periodicity check at cycle boundaries and induces
// the configured disease perturbation once the model ran long enough in its
// healthy state. inioutpath, when non-empty, receives the periodic initial
// conditions
func (o *Problem) CycleCheck(t float64, inioutpath string) (isPeriodic bool) {
	isPeriodic = o.Mdl.CycleCheck(o.S, o.VarTc, o.VarTcOld, t, &o.Cycle, &o.CycleErr, o.EpsPeriodic, o.Aggregate, inioutpath, o.PerturbCycle)
	o.Mdl.InducePerturbation(o.Perturb, o.Cycle, o.PerturbCycle)
	return
}

// WriteOutput appends the theta-midpoint of the current and the committed
// state to the per-variable time series. Must be called before the step is
// committed; at that point both states still differ and the written values
// match the time level the theta scheme evaluates at
func (o *Problem) WriteOutput(path string, t float64) error {
	o.Mdl.MidpointAvg(o.S, o.SOld, o.SMid)
	o.Mdl.MidpointAvg(o.Aux, o.AuxOld, o.AuxMid)
	return o.Mdl.WriteOutput(path, t, o.SMid, o.AuxMid)
}
