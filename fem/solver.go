// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/rnd"
)

// SolverCoupled solves the monolithically coupled continuum + lumped problem
// with a Newton-Raphson method. Divergence is caught and the step is retried
// with pseudo-transient continuation (PTC): a damping term on the continuum
// diagonal that shrinks as the residual drops; each retry re-seeds the
// damping factor with a random jitter
type SolverCoupled struct {
	dom  *Domain
	nln  *OdeNewton // nested lumped solver (Lagrange coupling only)
	ptc  bool       // PTC currently active
	kPtc float64    // current PTC factor

	// Lagrange coupling workspace
	sSave, sBase []float64
	kss          [][]float64

	// assembly workspace
	rowbuf, colbuf []float64
}

// set factory
func init() {
	allocators["coupled"] = func(dom *Domain) Solver {
		solver := new(SolverCoupled)
		solver.dom = dom
		n := dom.Ode.Mdl.NumDof()
		if dom.Coup == CpLagrange {
			solver.nln = NewOdeNewton(dom.Ode, &dom.Sim.Solver, dom.Sim.LinSol.Name)
			solver.sSave = make([]float64, n)
			solver.sBase = make([]float64, n)
			solver.kss = la.MatAlloc(dom.Ns, dom.Ns)
		}
		solver.rowbuf = make([]float64, dom.Nu)
		solver.colbuf = make([]float64, dom.Nu)
		return solver
	}
}

// Run solves the time loop
func (o *SolverCoupled) Run(tf float64, dtFunc, dtoFunc fun.Func, verbose bool) (err error) {

	// auxiliary
	d := o.dom
	dat := d.Sim.Solver
	prob := d.Ode
	if o.nln != nil {
		defer o.nln.Free()
	}

	// divergence control raises the iteration budget
	nmaxit := dat.NmaxIt
	if dat.DvgCtrl {
		nmaxit = 250
		rnd.Init(0)
	}

	// control
	nretry := 0
	o.ptc = dat.PTC
	o.kPtc = dat.KPtcIni
	t := d.T
	tout := t + dtoFunc.F(t, nil)

	// consistent history at the initial state; the coupling quantities must
	// be seeded from the continuum before the committed evaluation
	switch d.Coup {
	case CpDirect:
		for i, cid := range prob.Mdl.CIds() {
			prob.C[cid] = d.Cont.CoupQOld(i)
		}
	case CpLagrange:
		for i, cid := range prob.Mdl.CIds() {
			prob.C[cid] = d.LmOld[i]
		}
	}
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

		// backup and run iterations
		d.backup()
		diverging, err := o.iterations(t, Δt, nmaxit)
		if err != nil {
			return chk.Err("run_iterations failed:\n%v", err)
		}

		// restore and retry the same step with re-seeded PTC damping
		if diverging {
			if !dat.DvgCtrl {
				return chk.Err("Newton diverged at t=%g", t)
			}
			nretry++
			if nretry > dat.NdvgMax {
				return chk.Err("continuous divergence after %d retries reached", nretry-1)
			}
			if verbose {
				io.Pfred(". . . iterations diverging (%2d) . . .\n", nretry)
			}
			d.restore()
			t -= Δt
			d.T = t
			lasttimestep = false
			o.ptc = true
			o.kPtc = dat.KPtcIni * rnd.Float64(dat.PtcRandAdapt[0], dat.PtcRandAdapt[1])
			continue
		}

		// divergence recovery is transient: the damping is disabled again
		// and its factor re-initialised once a step converges
		nretry = 0
		o.ptc = dat.PTC
		o.kPtc = dat.KPtcIni

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

		// commit converged state
		if d.Cont != nil {
			err = d.Cont.Update(t, Δt)
			if err != nil {
				return chk.Err("cannot update continuum state:\n%v", err)
			}
		}
		copy(d.LmOld, d.Lm)
		prob.UpdateHistory()

		// periodicity check at cycle boundaries; may induce a disease
		if prob.CycleCheck(t, d.Sim.DirOut) {
			if verbose {
				io.Pfgreen("\n>>> Periodicity reached after %d heart cycles (error %g)\n", prob.Cycle-1, prob.CycleErr)
			}
			return nil
		}
	}
	return
}

// iterations runs the Newton iterations of one time step. The convergence
// check is conjunctive: residual and increment of every active block must be
// below their tolerances
func (o *SolverCoupled) iterations(t, Δt float64, nmaxit int) (diverging bool, err error) {

	// auxiliary
	d := o.dom
	dat := d.Sim.Solver
	prob := d.Ode
	nup := d.Nu + d.Np

	// message
	var it int
	var resU, res0, incU, inc0 float64
	if dat.ShowR {
		io.Pf("\n%13s%4s%18s%18s%18s%18s\n", "t", "it", "resU", "res0D", "incU", "inc0D")
		defer func() {
			io.Pf("%13.6e%4d%18.10e%18.10e%18.10e%18.10e\n", t, it, resU, res0, incU, inc0)
		}()
	}

	// iterations
	var resUlast float64
	for it = 0; it < nmaxit; it++ {

		// local (e.g. Gauss point) nonlinearities first
		if ln, ok := d.Cont.(LocalNonlin); ok {
			err = ln.SolveLocal(t, Δt)
			if err != nil {
				return
			}
		}

		// Lagrange coupling: nested lumped solve and FD sensitivities
		if d.Coup == CpLagrange {
			err = o.lagrangeStep(t, Δt)
			if err != nil {
				return
			}
		}

		// assemble right-hand side vector (fb) with negative of residuals
		la.VecFill(d.Fb, 0)
		if d.Cont != nil {
			err = d.Cont.AddToRhs(d.Fb, d.Ou, d.Op, o.lmVals(), t, Δt)
			if err != nil {
				return
			}
		}
		o.coupRhs(t, Δt)

		// join all fb
		if d.Distr {
			mpi.AllReduceSum(d.Fb, d.Wb)
		}

		// essential boundary conditions
		if d.Cont != nil {
			d.Cont.ApplyEssenBcs(d.Fb, d.Ou, d.Op, t)
		}

		// block residual norms
		resU = vecNormPart(d.Fb, 0, nup)
		res0 = vecNormPart(d.Fb, d.Os, d.Ntot)

		// check divergence
		if math.IsNaN(resU) || math.IsNaN(res0) || resU > maxResVal || res0 > maxResVal {
			diverging = true
			return
		}

		// assemble Jacobian matrix
		if d.InitLSol {
			nnz := d.Ns*d.Ns + 2*d.Ns*d.Nu + d.Nu
			if d.Cont != nil {
				nnz += d.Cont.NnzKb()
			}
			d.Kb.Init(d.Ntot, d.Ntot, nnz)
		}
		d.Kb.Start()
		if d.Cont != nil {
			err = d.Cont.AddToKb(&d.Kb, d.Ou, d.Op, t, Δt, it == 0)
			if err != nil {
				return
			}
		}
		err = o.coupKb(t, Δt)
		if err != nil {
			return
		}

		// PTC damping on the continuum diagonal; additive
		if o.ptc {
			for i := 0; i < d.Nu; i++ {
				d.Kb.Put(i, i, o.kPtc)
			}
		}

		// initialise linear solver
		if d.InitLSol {
			err = d.LinSol.InitR(&d.Kb, d.Sim.LinSol.Symmetric, d.Sim.LinSol.Verbose, d.Sim.LinSol.Timing)
			if err != nil {
				err = chk.Err("cannot initialise linear solver:\n%v", err)
				return
			}
			d.InitLSol = false
		}

		// adapt the tolerance of tolerant (iterative) linear solvers
		if dat.AdaptLinTol {
			if ts, ok := d.LinSol.(TolerantSolver); ok {
				tol := dat.TolLin
				if it > 0 && resU > 0 {
					tol = math.Min(dat.AdaptFactor*resU, dat.TolLin)
				}
				ts.SetTol(tol, dat.MaxLinIt)
			}
		}

		// factorise and solve
		err = d.LinSol.Fact()
		if err != nil {
			err = chk.Err("factorisation failed:\n%v", err)
			return
		}
		err = d.LinSol.SolveR(d.Wb, d.Fb, false)
		if err != nil {
			err = chk.Err("solve failed:\n%v", err)
			return
		}

		// update primary variables
		if d.Cont != nil {
			d.Cont.UpdateU(d.Wb[:d.Nu])
			if d.Np > 0 {
				d.Cont.UpdateP(d.Wb[d.Op:d.Os])
			}
		}
		switch d.Coup {
		case CpNone, CpDirect:
			for i := 0; i < d.Ns; i++ {
				prob.S[i] += d.Wb[d.Os+i]
			}
		case CpLagrange:
			for i := 0; i < d.Ns; i++ {
				d.Lm[i] += d.Wb[d.Os+i]
			}
		}

		// block increment norms
		incU = vecNormPart(d.Wb, 0, nup)
		inc0 = vecNormPart(d.Wb, d.Os, d.Ntot)

		// message
		if dat.ShowR {
			io.Pf("%13.6e%4d%18.10e%18.10e%18.10e%18.10e\n", t, it, resU, res0, incU, inc0)
		}

		// conjunctive convergence check over all active blocks
		convU := nup == 0 || (resU <= dat.TolRes && incU <= dat.TolInc)
		conv0 := res0 <= dat.TolRes0D && inc0 <= dat.TolInc0D
		if convU && conv0 {
			return
		}

		// PTC update: the damping shrinks as the residual drops
		if o.ptc && it > 0 && resUlast > 0 {
			o.kPtc *= resU / resUlast
		}
		resUlast = resU
	}

	// exceeding the iteration budget counts as divergence for the retry logic
	diverging = true
	return
}

// lmVals returns the interface values seen by the continuum: the multipliers
// (Lagrange coupling) or the coupled lumped unknowns (direct coupling)
func (o *SolverCoupled) lmVals() []float64 {
	d := o.dom
	if d.Coup == CpLagrange {
		return d.Lm
	}
	vids := d.Ode.Mdl.VIds()
	vals := make([]float64, len(vids))
	for i, vid := range vids {
		vals[i] = d.Ode.S[vid]
	}
	return vals
}

// vecNormPart returns the Euclidean norm of v[lo:hi]
func vecNormPart(v []float64, lo, hi int) (nrm float64) {
	for i := lo; i < hi; i++ {
		nrm += v[i] * v[i]
	}
	return math.Sqrt(nrm)
}
