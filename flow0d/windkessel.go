// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
)

// TwoElWindkessel implements the two-element windkessel
//  C dp/dt + (p - p_ref)/R = Q(t)
// with a prescribed inflow curve Q(t). One unknown: the pressure p
type TwoElWindkessel struct {
	Base
	c    float64  // compliance
	r    float64  // resistance
	pref float64  // downstream reference pressure
	qcrv fun.Func // prescribed inflow
}

// add model to factory
func init() {
	allocators["2elwindkessel"] = func() Model { return new(TwoElWindkessel) }
}

// Init initialises the model from its parameters
func (o *TwoElWindkessel) Init(cfg *Config, prms dbf.Params) (err error) {
	o.Kind = "2elwindkessel"
	o.Thet = cfg.Theta
	o.c, o.r, o.pref, o.Tcycl = 1.0, 1.0, 0.0, 1.0
	for _, p := range prms {
		switch p.N {
		case "C":
			o.c = p.V
		case "R":
			o.r = p.V
		case "p_ref":
			o.pref = p.V
		case "T_cycl":
			o.Tcycl = p.V
		default:
			return chk.Err("2elwindkessel: parameter named %q is invalid", p.N)
		}
	}
	if len(cfg.Curves) < 1 {
		return chk.Err("2elwindkessel: a time curve with the prescribed flux is required")
	}
	o.qcrv = cfg.Curves[0]
	o.rebuild()
	return
}

// rebuild constructs the symbolic system and the compiled evaluators
func (o *TwoElWindkessel) rebuild() {
	o.SetSolveArrays(1)
	o.Vids, o.Cids, o.Cqs = nil, nil, nil
	p := o.NewX("p", 0)
	q := o.NewFnc("Q")
	o.dfx[0] = Mul(Num(o.c), p)
	o.fx[0] = Sub(Div(Sub(p, Num(o.pref)), Num(o.r)), q)
	o.SetAuxArrays(1)
	o.ax[0] = q
	o.Vnames = []string{"p"}
	o.Anames = []string{"Q"}
	o.SetStiffness()
	o.CompileExpressions()
}

// EvalFncs evaluates the prescribed inflow at time t
func (o *TwoElWindkessel) EvalFncs(t float64, fnc []float64) {
	fnc[0] = o.qcrv.F(t, nil)
}

// InducePerturbation is a no-op: this model has no disease parameters
func (o *TwoElWindkessel) InducePerturbation(kind PerturbKind, cycle, pertAfterCycl int) {
}

// RcLoop implements a closed two-compartment loop: one time-varying elastance
// chamber connected to an arterial compliance through two parallel linear
// resistances. Two unknowns: the chamber pressure p_v and the arterial
// pressure p_ar. The loop reaches a periodic orbit after a few cycles, making
// it the smallest model with a meaningful periodicity check
type RcLoop struct {
	Base
	r    float64 // forward resistance
	rret float64 // return resistance
	car  float64 // arterial compliance
	vu   float64 // chamber unstressed volume
	emin float64 // minimal elastance
	emax float64 // maximal elastance
	ted  float64 // end-diastolic time
	tes  float64 // end-systolic time
	ch   *Chamber
	cq   CoupQuantity
}

// add model to factory
func init() {
	allocators["rcloop"] = func() Model { return new(RcLoop) }
}

// Init initialises the model from its parameters
func (o *RcLoop) Init(cfg *Config, prms dbf.Params) (err error) {
	o.Kind = "rcloop"
	o.Thet = cfg.Theta
	o.cq = cfg.Cq
	o.r, o.rret, o.car = 1e-2, 5e-2, 10.0
	o.vu = 0.0
	o.emin, o.emax = 0.5, 5.0
	o.ted, o.tes = 0.2, 0.53
	o.Tcycl = 1.0
	for _, p := range prms {
		switch p.N {
		case "R":
			o.r = p.V
		case "R_ret":
			o.rret = p.V
		case "C_ar":
			o.car = p.V
		case "V_u":
			o.vu = p.V
		case "E_min":
			o.emin = p.V
		case "E_max":
			o.emax = p.V
		case "t_ed":
			o.ted = p.V
		case "t_es":
			o.tes = p.V
		case "T_cycl":
			o.Tcycl = p.V
		default:
			return chk.Err("rcloop: parameter named %q is invalid", p.N)
		}
	}
	o.ch = &Chamber{Name: "v", Model: Elast0D}
	if cfg.Chambers != nil {
		if ch, ok := cfg.Chambers["lv"]; ok {
			o.ch = ch
			o.ch.Name = "v"
		}
	}
	if o.ch.Model == PrescrElast && len(o.ch.ElastVals) == 0 {
		return chk.Err("rcloop: chamber with prescribed elastance needs a loaded elastance array")
	}
	return o.rebuild()
}

// rebuild constructs the symbolic system and the compiled evaluators
func (o *RcLoop) rebuild() (err error) {
	o.SetSolveArrays(2)
	o.Vids, o.Cids, o.Cqs = nil, nil, nil
	e := o.NewFnc("E_v")
	st, err := o.SetCouplingState(o.ch, o.cq, o.vu, 0, "p_v", "Q_v", e)
	if err != nil {
		return
	}
	par := o.NewX("p_ar", 1)

	// forward flow chamber -> artery and return flow artery -> chamber
	qout := Div(Sub(st.P, par), Num(o.r))
	qret := Div(Sub(par, st.PDown), Num(o.rret))

	// chamber mass balance and arterial windkessel
	o.dfx[0], o.fx[0] = balance(st, qret, qout)
	o.dfx[1] = Mul(Num(o.car), par)
	o.fx[1] = Sub(qret, qout)

	o.SetAuxArrays(2)
	if st.V != nil {
		o.ax[0] = st.V
	} else {
		o.ax[0] = Num(0)
	}
	o.ax[1] = qout
	o.Vnames = []string{"p_v", "p_ar"}
	if o.ch.Model == Fem3D && o.cq == CqPressure {
		o.Vnames[0] = "Q_v"
	}
	o.Anames = []string{"V_v", "q_out"}
	o.SetStiffness()
	o.CompileExpressions()
	return
}

// EvalFncs evaluates the chamber elastance at time t; time is folded into the
// current cycle so that the activation repeats every cycle
func (o *RcLoop) EvalFncs(t float64, fnc []float64) {
	tc := math.Mod(t, o.Tcycl)
	switch o.ch.Model {
	case PrescrElast:
		fnc[0] = Ep(o.ch.ElastVals, o.ch.ElastTime, t)
	default:
		fnc[0] = Et(o.emax-o.emin, o.emin, tc, 2.0*o.ted, o.tes-o.ted)
	}
}

// InducePerturbation is a no-op: this model has no disease parameters
func (o *RcLoop) InducePerturbation(kind PerturbKind, cycle, pertAfterCycl int) {
}
