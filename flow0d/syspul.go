// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// SysPul implements the closed-loop systemic and pulmonary circulation: four
// heart chambers with pressure-switched piecewise-linear valves, systemic and
// pulmonary arterial windkessels with inertance, and the corresponding venous
// compartments. Sixteen unknowns:
//  0 q_vin_l    1 p_at_l    2 q_vout_l   3 p_v_l
//  4 p_ar_sys   5 q_ar_sys  6 p_ven_sys  7 q_ven_sys
//  8 q_vin_r    9 p_at_r   10 q_vout_r  11 p_v_r
// 12 p_ar_pul  13 q_ar_pul 14 p_ven_pul 15 q_ven_pul
// Each chamber can be a time-varying elastance, a prescribed elastance, or a
// continuum (FEM) field coupled through volume, flux or pressure
type SysPul struct {
	Base
	prm     map[string]float64         // scalar parameters by name
	chs     map[string]*Chamber        // chamber configuration keyed by {lv, rv, la, ra}
	cq      CoupQuantity               // coupling quantity for continuum chambers
	fncEval []func(t float64) float64  // elastance evaluators, in fnc-symbol order
}

// chamber slots: iteration order fixes the coupling interface order
var syspulChambers = []struct {
	name    string // chamber key
	pname   string // pressure unknown name
	qname   string // outflux unknown name (pressure coupling)
	ekey    string // elastance function name
	emaxkey string // maximal elastance parameter
	eminkey string // minimal elastance parameter
	vukey   string // unstressed volume parameter
	vindex  int    // unknown slot
	atrial  bool   // atrial activation timing
}{
	{"lv", "p_v_l", "Q_v_l", "E_v_l", "E_v_max_l", "E_v_min_l", "V_v_l_u", 3, false},
	{"rv", "p_v_r", "Q_v_r", "E_v_r", "E_v_max_r", "E_v_min_r", "V_v_r_u", 11, false},
	{"la", "p_at_l", "Q_at_l", "E_at_l", "E_at_max_l", "E_at_min_l", "V_at_l_u", 1, true},
	{"ra", "p_at_r", "Q_at_r", "E_at_r", "E_at_max_r", "E_at_min_r", "V_at_r_u", 9, true},
}

// add model to factory
func init() {
	allocators["syspul"] = func() Model { return new(SysPul) }
}

// syspulDefaults returns the default parameter set
func syspulDefaults() map[string]float64 {
	return map[string]float64{

		// systemic and pulmonary compartments
		"R_ar_sys": 120.0e-6, "C_ar_sys": 13.0e3, "L_ar_sys": 0.667e-6, "Z_ar_sys": 6.0e-6,
		"R_ven_sys": 24.0e-6, "C_ven_sys": 650.0e3, "L_ven_sys": 0.0,
		"R_ar_pul": 15.0e-6, "C_ar_pul": 20.0e3, "L_ar_pul": 0.0,
		"R_ven_pul": 15.0e-6, "C_ven_pul": 50.0e3, "L_ven_pul": 0.0,

		// valve resistances (min = open, max = closed)
		"R_vin_l_min": 1.0e-6, "R_vin_l_max": 1.0e1,
		"R_vout_l_min": 1.0e-6, "R_vout_l_max": 1.0e1,
		"R_vin_r_min": 1.0e-6, "R_vin_r_max": 1.0e1,
		"R_vout_r_min": 1.0e-6, "R_vout_r_max": 1.0e1,

		// chamber elastances
		"E_v_max_l": 30.0e-5, "E_v_min_l": 12.0e-6,
		"E_v_max_r": 20.0e-5, "E_v_min_r": 10.0e-6,
		"E_at_max_l": 2.9e-5, "E_at_min_l": 9.0e-6,
		"E_at_max_r": 1.8e-5, "E_at_min_r": 8.0e-6,

		// unstressed volumes
		"V_at_l_u": 0.0, "V_v_l_u": 0.0, "V_at_r_u": 0.0, "V_v_r_u": 0.0,
		"V_ar_sys_u": 0.0, "V_ven_sys_u": 0.0, "V_ar_pul_u": 0.0, "V_ven_pul_u": 0.0,

		// timings
		"t_ed": 0.2, "t_es": 0.53, "T_cycl": 1.0,
	}
}

// Init initialises the model from its parameters
func (o *SysPul) Init(cfg *Config, prms dbf.Params) (err error) {
	o.Kind = "syspul"
	o.Thet = cfg.Theta
	o.cq = cfg.Cq
	o.prm = syspulDefaults()
	for _, p := range prms {
		if _, ok := o.prm[p.N]; !ok {
			return chk.Err("syspul: parameter named %q is invalid", p.N)
		}
		o.prm[p.N] = p.V
	}
	o.Tcycl = o.prm["T_cycl"]
	o.chs = map[string]*Chamber{
		"lv": {Name: "lv", Model: Elast0D},
		"rv": {Name: "rv", Model: Elast0D},
		"la": {Name: "la", Model: Elast0D},
		"ra": {Name: "ra", Model: Elast0D},
	}
	for name, ch := range cfg.Chambers {
		if _, ok := o.chs[name]; !ok {
			return chk.Err("syspul: unknown chamber %q", name)
		}
		ch.Name = name
		o.chs[name] = ch
	}
	return o.rebuild()
}

// rebuild constructs the symbolic system and the compiled evaluators. Any
// parameter change (e.g. an induced disease) must go through here again
func (o *SysPul) rebuild() (err error) {
	o.SetSolveArrays(16)
	o.Vids, o.Cids, o.Cqs = nil, nil, nil
	o.fncEval = nil
	p := o.prm

	// vascular unknowns
	qvinl := o.NewX("q_vin_l", 0)
	qvoutl := o.NewX("q_vout_l", 2)
	parsys := o.NewX("p_ar_sys", 4)
	qarsys := o.NewX("q_ar_sys", 5)
	pvensys := o.NewX("p_ven_sys", 6)
	qvensys := o.NewX("q_ven_sys", 7)
	qvinr := o.NewX("q_vin_r", 8)
	qvoutr := o.NewX("q_vout_r", 10)
	parpul := o.NewX("p_ar_pul", 12)
	qarpul := o.NewX("q_ar_pul", 13)
	pvenpul := o.NewX("p_ven_pul", 14)
	qvenpul := o.NewX("q_ven_pul", 15)

	// chamber states, in fixed interface order
	sts := make(map[string]ChamberState)
	for _, cs := range syspulChambers {
		var st ChamberState
		st, err = o.chamberState(cs.name, cs.pname, cs.qname, cs.ekey, cs.emaxkey, cs.eminkey, cs.vukey, cs.vindex, cs.atrial)
		if err != nil {
			return
		}
		sts[cs.name] = st
	}
	stLv, stRv, stLa, stRa := sts["lv"], sts["rv"], sts["la"], sts["ra"]

	// valves: mitral, aortic, tricuspid, pulmonary
	o.dfx[0], o.fx[0] = Num(0), o.valve(qvinl, stLa.PDown, stLv.P, "R_vin_l")
	o.dfx[2], o.fx[2] = Num(0), o.valve(qvoutl, stLv.PDown, parsys, "R_vout_l")
	o.dfx[8], o.fx[8] = Num(0), o.valve(qvinr, stRa.PDown, stRv.P, "R_vin_r")
	o.dfx[10], o.fx[10] = Num(0), o.valve(qvoutr, stRv.PDown, parpul, "R_vout_r")

	// chamber mass balances
	o.dfx[1], o.fx[1] = balance(stLa, qvenpul, qvinl)
	o.dfx[3], o.fx[3] = balance(stLv, qvinl, qvoutl)
	o.dfx[9], o.fx[9] = balance(stRa, qvensys, qvinr)
	o.dfx[11], o.fx[11] = balance(stRv, qvinr, qvoutr)

	// systemic arteries: windkessel with aortic impedance, then momentum
	o.dfx[4] = Mul(Num(p["C_ar_sys"]), Sub(parsys, Mul(Num(p["Z_ar_sys"]), qvoutl)))
	o.fx[4] = Sub(qarsys, qvoutl)
	o.dfx[5] = Mul(Num(p["L_ar_sys"]/p["R_ar_sys"]), qarsys)
	o.fx[5] = Sub(qarsys, Div(Sub(parsys, pvensys), Num(p["R_ar_sys"])))

	// systemic veins
	o.dfx[6] = Mul(Num(p["C_ven_sys"]), pvensys)
	o.fx[6] = Sub(qvensys, qarsys)
	o.dfx[7] = Mul(Num(p["L_ven_sys"]/p["R_ven_sys"]), qvensys)
	o.fx[7] = Sub(qvensys, Div(Sub(pvensys, stRa.P), Num(p["R_ven_sys"])))

	// pulmonary arteries
	o.dfx[12] = Mul(Num(p["C_ar_pul"]), parpul)
	o.fx[12] = Sub(qarpul, qvoutr)
	o.dfx[13] = Mul(Num(p["L_ar_pul"]/p["R_ar_pul"]), qarpul)
	o.fx[13] = Sub(qarpul, Div(Sub(parpul, pvenpul), Num(p["R_ar_pul"])))

	// pulmonary veins
	o.dfx[14] = Mul(Num(p["C_ven_pul"]), pvenpul)
	o.fx[14] = Sub(qvenpul, qarpul)
	o.dfx[15] = Mul(Num(p["L_ven_pul"]/p["R_ven_pul"]), qvenpul)
	o.fx[15] = Sub(qvenpul, Div(Sub(pvenpul, stLa.P), Num(p["R_ven_pul"])))

	// unknown names; pressure-coupled continuum chambers carry a flux unknown
	o.Vnames = []string{
		"q_vin_l", "p_at_l", "q_vout_l", "p_v_l",
		"p_ar_sys", "q_ar_sys", "p_ven_sys", "q_ven_sys",
		"q_vin_r", "p_at_r", "q_vout_r", "p_v_r",
		"p_ar_pul", "q_ar_pul", "p_ven_pul", "q_ven_pul",
	}
	for _, cs := range syspulChambers {
		if o.chs[cs.name].Model == Fem3D && o.cq == CqPressure {
			o.Vnames[cs.vindex] = cs.qname
		}
	}

	// auxiliary outputs: chamber and compartment volumes
	var anames []string
	var aexprs []Expr
	addaux := func(name string, e Expr) {
		anames = append(anames, name)
		aexprs = append(aexprs, e)
	}
	for _, cs := range []struct {
		ch, name string
	}{{"la", "V_at_l"}, {"lv", "V_v_l"}, {"ra", "V_at_r"}, {"rv", "V_v_r"}} {
		if sts[cs.ch].V != nil {
			addaux(cs.name, sts[cs.ch].V)
		}
	}
	addaux("V_ar_sys", Add(Mul(Num(p["C_ar_sys"]), Sub(parsys, Mul(Num(p["Z_ar_sys"]), qvoutl))), Num(p["V_ar_sys_u"])))
	addaux("V_ven_sys", Add(Mul(Num(p["C_ven_sys"]), pvensys), Num(p["V_ven_sys_u"])))
	addaux("V_ar_pul", Add(Mul(Num(p["C_ar_pul"]), parpul), Num(p["V_ar_pul_u"])))
	addaux("V_ven_pul", Add(Mul(Num(p["C_ven_pul"]), pvenpul), Num(p["V_ven_pul_u"])))
	o.Anames = anames
	o.SetAuxArrays(len(aexprs))
	copy(o.ax, aexprs)

	o.SetStiffness()
	o.CompileExpressions()
	return
}

// chamberState registers the elastance function of one chamber (when it has
// one) and inserts its coupling relation
func (o *SysPul) chamberState(name, pname, qname, ekey, emaxkey, eminkey, vukey string, vindex int, atrial bool) (st ChamberState, err error) {
	ch := o.chs[name]
	var e *Sym
	switch ch.Model {
	case Elast0D:
		e = o.NewFnc(ekey)
		emax, emin := o.prm[emaxkey], o.prm[eminkey]
		ted, tes := o.prm["t_ed"], o.prm["t_es"]
		if atrial {
			o.fncEval = append(o.fncEval, func(t float64) float64 {
				return Et(emax-emin, emin, t, 0.0, 2.0*ted)
			})
		} else {
			o.fncEval = append(o.fncEval, func(t float64) float64 {
				return Et(emax-emin, emin, t, 2.0*ted, tes-ted)
			})
		}
	case PrescrElast:
		if len(ch.ElastVals) == 0 {
			return st, chk.Err("syspul: chamber %s with prescribed elastance needs a loaded elastance array", name)
		}
		e = o.NewFnc(ekey)
		o.fncEval = append(o.fncEval, func(t float64) float64 {
			return Ep(ch.ElastVals, ch.ElastTime, t)
		})
	}
	return o.SetCouplingState(ch, o.cq, o.prm[vukey], vindex, pname, qname, e)
}

// valve returns the flow relation of a pressure-switched piecewise-linear
// valve: the resistance snaps between its open (min) and closed (max) value
// depending on the sign of the pressure gradient
func (o *SysPul) valve(q, pup, pdown Expr, key string) Expr {
	dp := Sub(pup, pdown)
	r := Branch(dp, Num(o.prm[key+"_min"]), Num(o.prm[key+"_max"]))
	return Sub(q, Div(dp, r))
}

// EvalFncs evaluates the chamber elastances; time is folded into the current
// cycle so that the activation repeats every cycle
func (o *SysPul) EvalFncs(t float64, fnc []float64) {
	tc := math.Mod(t, o.Tcycl)
	for i, fe := range o.fncEval {
		fnc[i] = fe(tc)
	}
}

// InducePerturbation mutates the left-heart valve resistances according to
// the disease type and rebuilds the whole model: array allocation, chamber
// interfaces, equation map, differentiation and compilation, in that order
//  mr: mitral regurgitation    ms: mitral stenosis
//  ar: aortic regurgitation    as: aortic stenosis
func (o *SysPul) InducePerturbation(kind PerturbKind, cycle, pertAfterCycl int) {
	if !o.PerturbationPending(kind, cycle, pertAfterCycl) {
		return
	}
	switch kind {
	case PerturbMR:
		o.prm["R_vin_l_max"] = 1.0e-5
	case PerturbMS:
		o.prm["R_vin_l_min"] = 2.5e-5
	case PerturbAR:
		o.prm["R_vout_l_max"] = 5.0e-5
	case PerturbAS:
		o.prm["R_vout_l_min"] = 5.0e-5
	}
	if err := o.rebuild(); err != nil {
		chk.Panic("syspul: cannot rebuild model after inducing perturbation:\n%v", err)
	}
}
