// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
)

// SolverFlow0d runs a standalone lumped-circulation simulation: one nested
// Newton solve per time step, output after convergence, periodicity check at
// cycle boundaries and early stop once the cardiovascular state repeats
type SolverFlow0d struct {
	dom *Domain
	nln *OdeNewton
}

// set factory
func init() {
	allocators["flow0d"] = func(dom *Domain) Solver {
		solver := new(SolverFlow0d)
		solver.dom = dom
		solver.nln = NewOdeNewton(dom.Ode, &dom.Sim.Solver, dom.Sim.LinSol.Name)
		return solver
	}
}

// Run solves the time loop
func (o *SolverFlow0d) Run(tf float64, dtFunc, dtoFunc fun.Func, verbose bool) (err error) {

	// auxiliary
	d := o.dom
	dat := d.Sim.Solver
	prob := d.Ode
	defer o.nln.Free()

	// control
	t := d.T
	tout := t + dtoFunc.F(t, nil)

	// consistent history at the initial state
	prob.EvaluateOld(dtFunc.F(t, nil), t)

	// first output
	if d.Proc == 0 {
		err = prob.WriteOutput(d.Sim.DirOut, t)
		if err != nil {
			return chk.Err("cannot write results:\n%v", err)
		}
	}

	// time loop
	var Δt float64
	var lasttimestep bool
	for t < tf {

		// time increment
		Δt = dtFunc.F(t, nil)
		if t+Δt >= tf {
			lasttimestep = true
		}
		t += Δt
		d.T = t

		// message
		if verbose && !dat.ShowR {
			io.PfWhite("%30.15f\r", t)
		}

		// solve step
		_, err = o.nln.Solve(t, Δt)
		if err != nil {
			return chk.Err("time step t=%g failed:\n%v", t, err)
		}

		// output of the converged state only; before the commit so that the
		// written values are the theta-midpoints of the step
		if t >= tout || lasttimestep {
			if d.Proc == 0 {
				err = prob.WriteOutput(d.Sim.DirOut, t)
				if err != nil {
					return chk.Err("cannot write results:\n%v", err)
				}
			}
			tout += dtoFunc.F(t, nil)
		}

		// commit state
		prob.UpdateHistory()

		// periodicity check at cycle boundaries; may induce a disease
		if prob.CycleCheck(t, d.Sim.DirOut) {
			if verbose {
				io.Pfgreen("\n>>> Periodicity reached after %d heart cycles (error %g)\n", prob.Cycle-1, prob.CycleErr)
			}
			return
		}
	}
	return
}
