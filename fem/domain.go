// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/la"

	"github.com/daveb-dev/ambit/flow0d"
	"github.com/daveb-dev/ambit/inp"
)

// coupling modes
const (
	CpNone     = iota // pure 0D run
	CpDirect          // monolithic direct: lumped unknowns in the global system
	CpLagrange        // monolithic Lagrange: interface multipliers in the global system, lumped system solved nested
)

// Domain gathers one coupled problem: the lumped circulation plus an
// optional continuum field attached to its chambers
type Domain struct {

	// data
	Sim  *inp.Simulation // simulation data
	Ode  *flow0d.Problem // lumped circulation
	Cont Continuum       // continuum field; may be nil (pure 0D run)
	Coup int             // coupling mode

	// multiprocessing
	Distr bool // distributed run
	Proc  int  // processor id

	// block layout
	Nu   int // continuum primary unknowns
	Np   int // continuum constraint unknowns
	Ns   int // size of the last block: lumped unknowns (direct) or multipliers (lagrange)
	Ntot int // total system size
	Ou   int // offset of u block
	Op   int // offset of p block
	Os   int // offset of last block

	// Lagrange coupling state
	Lm    []float64 // interface multipliers
	LmOld []float64 // committed multipliers

	// linear system
	Kb       la.Triplet // global Jacobian
	Fb       []float64  // global right-hand side (negative residual)
	Wb       []float64  // global increment / workspace
	LinSol   la.LinSol  // linear solver
	InitLSol bool       // flag to initialise linear solver

	// backup for divergence recovery
	sBkp, lmBkp []float64

	// time
	T float64
}

// NewDomain builds the coupled domain from the simulation data. cont may be
// nil for standalone lumped runs
func NewDomain(sim *inp.Simulation, cont Continuum, distr bool, proc int) (o *Domain, err error) {

	// basic data
	o = &Domain{Sim: sim, Cont: cont, Distr: distr, Proc: proc, InitLSol: true}

	// linear solver; only the sparse direct solvers are available
	if sim.Solver.SolveType != "direct" {
		return nil, chk.Err("cannot find linear solve type named %q", sim.Solver.SolveType)
	}
	o.LinSol = la.GetSolver(sim.LinSol.Name)

	// chamber configuration
	dat := &sim.Flow0d
	cq, err := flow0d.CoupQuantityByName(dat.CoupQ)
	if err != nil {
		return nil, err
	}
	tcycl := 1.0
	if p := dat.Prms.Find("T_cycl"); p != nil {
		tcycl = p.V
	}
	chambers := make(map[string]*flow0d.Chamber)
	for name, cd := range dat.Chambers {
		mdl, err := flow0d.ChamberModelByName(cd.Model)
		if err != nil {
			return nil, err
		}
		ch := &flow0d.Chamber{Name: name, Model: mdl, Nintf: cd.Nintf}
		if mdl == flow0d.PrescrElast {
			if err = ch.LoadPrescribedElastance(cd.Path, tcycl); err != nil {
				return nil, err
			}
		}
		chambers[name] = ch
	}

	// time curves consumed by the model
	var curves []fun.Func
	for _, name := range dat.Curves {
		crv, err := sim.Functions.Get(name)
		if err != nil {
			return nil, err
		}
		curves = append(curves, crv)
	}

	// lumped model and its numeric state
	cfg := &flow0d.Config{Theta: dat.Theta, Chambers: chambers, Cq: cq, Curves: curves}
	mdl, err := flow0d.New(dat.Model, cfg, dat.Prms)
	if err != nil {
		return nil, err
	}
	o.Ode = flow0d.NewProblem(mdl)
	o.Ode.EpsPeriodic = dat.EpsPeriodic
	o.Ode.Aggregate = dat.PeriodicCheck == "aggregate"
	o.Ode.Perturb, err = flow0d.PerturbByName(dat.Perturb)
	if err != nil {
		return nil, err
	}
	o.Ode.PerturbCycle = dat.PerturbCycle

	// prescribed unknowns
	if len(dat.PrescribedVars) > 0 {
		pvars := make(map[string]fun.Func)
		for name, crvname := range dat.PrescribedVars {
			crv, err := sim.Functions.Get(crvname)
			if err != nil {
				return nil, err
			}
			pvars[name] = crv
		}
		if err = o.Ode.SetPrescribed(pvars); err != nil {
			return nil, err
		}
	}

	// initial conditions
	var ini map[string]float64
	if dat.InitialFile != "" {
		ini, err = mdl.InitialFromFile(dat.InitialFile)
		if err != nil {
			return nil, err
		}
		o.Ode.SetInitial(ini)
	}

	// coupling mode and block layout
	o.Coup = CpNone
	if cont != nil {
		switch dat.CoupType {
		case "monolithic_direct":
			o.Coup = CpDirect
		case "monolithic_lagrange":
			o.Coup = CpLagrange
		default:
			return nil, chk.Err("cannot find coupling type named %q", dat.CoupType)
		}
		o.Nu = cont.NdofU()
		o.Np = cont.NdofP()
		if cont.NumCoupSurf() != len(mdl.VIds()) {
			return nil, chk.Err("continuum field has %d coupling surfaces but the lumped model exposes %d", cont.NumCoupSurf(), len(mdl.VIds()))
		}
	}
	switch o.Coup {
	case CpNone:
		o.Ns = mdl.NumDof()
		o.Ntot = o.Ns
	case CpDirect:
		o.Ns = mdl.NumDof()
		o.Ntot = o.Nu + o.Np + o.Ns
	case CpLagrange:
		o.Ns = cont.NumCoupSurf()
		o.Ntot = o.Nu + o.Np + o.Ns
		o.Lm = make([]float64, o.Ns)
		o.LmOld = make([]float64, o.Ns)
		o.initLm(ini)
	}
	o.Ou, o.Op, o.Os = 0, o.Nu, o.Nu+o.Np

	// linear system arrays
	o.Fb = make([]float64, o.Ntot)
	o.Wb = make([]float64, o.Ntot)
	o.sBkp = make([]float64, mdl.NumDof())
	o.lmBkp = make([]float64, len(o.Lm))
	return
}

// initLm seeds the interface multipliers from the initial conditions of the
// quantities they stand for. Under pressure coupling the multiplier is the
// chamber pressure, which enters the model as a coupling quantity; the
// chamber slot then holds the renamed outflux unknown instead
func (o *Domain) initLm(ini map[string]float64) {
	if ini == nil {
		return
	}
	names := o.Ode.Mdl.Vars()
	cnames := o.Ode.Mdl.CoupVars()
	cids := o.Ode.Mdl.CIds()
	for i, vid := range o.Ode.Mdl.VIds() {
		key := names[vid]
		if o.Ode.Mdl.CoupKind(i) == flow0d.CqPressure {
			key = cnames[cids[i]]
		}
		if val, ok := ini[key+"_0"]; ok {
			o.Lm[i] = val
			o.LmOld[i] = val
		}
	}
}

// backup saves the state for divergence recovery
func (o *Domain) backup() {
	copy(o.sBkp, o.Ode.S)
	copy(o.lmBkp, o.Lm)
	if o.Cont != nil {
		o.Cont.Backup()
	}
}

// restore brings the state back to the last backup
func (o *Domain) restore() {
	copy(o.Ode.S, o.sBkp)
	copy(o.Lm, o.lmBkp)
	if o.Cont != nil {
		o.Cont.Restore()
	}
}
