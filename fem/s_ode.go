// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/daveb-dev/ambit/flow0d"
	"github.com/daveb-dev/ambit/inp"
)

// maximum residual norm before the iterations count as diverged
const maxResVal = 1.0e16

// OdeNewton solves the lumped system alone at a fixed time. It is used both
// as the inner solver of the Lagrange-type coupling and as the workhorse of
// the standalone time-stepping driver
type OdeNewton struct {
	prob   *flow0d.Problem
	kb     la.Triplet
	lis    la.LinSol
	initLS bool
	fb, dw []float64
	tolRes float64
	tolInc float64
	nmaxit int
	showR  bool
}

// NewOdeNewton allocates the nested solver for the lumped system
func NewOdeNewton(prob *flow0d.Problem, dat *inp.SolverData, lsname string) (o *OdeNewton) {
	n := prob.Mdl.NumDof()
	o = &OdeNewton{
		prob:   prob,
		lis:    la.GetSolver(lsname),
		initLS: true,
		fb:     make([]float64, n),
		dw:     make([]float64, n),
		tolRes: dat.TolRes0D,
		tolInc: dat.TolInc0D,
		nmaxit: dat.NmaxIt,
		showR:  dat.ShowR,
	}
	o.kb.Init(n, n, n*n)
	return
}

// Free frees the linear solver memory
func (o *OdeNewton) Free() {
	if !o.initLS {
		o.lis.Free()
	}
}

// Solve runs the Newton iterations on the lumped system at time t. The
// coupling quantities in prob.C must have been set by the caller
func (o *OdeNewton) Solve(t, dt float64) (it int, err error) {
	n := o.prob.Mdl.NumDof()
	if o.showR {
		io.Pf("%13s%4s%23s%23s\n", "t", "it", "res0D", "inc0D")
	}
	for it = 0; it < o.nmaxit; it++ {

		// residual and tangent at the current iterate
		o.prob.Residual(dt, t)
		res := la.VecNorm(o.prob.R)

		// divergence
		if math.IsNaN(res) || res > maxResVal {
			return it, chk.Err("lumped model: Newton diverged at t=%g (res=%g)", t, res)
		}

		// assemble and solve for the increment
		o.kb.Start()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				o.kb.Put(i, j, o.prob.K[i][j])
			}
		}
		if o.initLS {
			err = o.lis.InitR(&o.kb, false, false, false)
			if err != nil {
				return it, chk.Err("cannot initialise linear solver:\n%v", err)
			}
			o.initLS = false
		}
		err = o.lis.Fact()
		if err != nil {
			return it, chk.Err("factorisation failed:\n%v", err)
		}
		for i := 0; i < n; i++ {
			o.fb[i] = -o.prob.R[i]
		}
		err = o.lis.SolveR(o.dw, o.fb, false)
		if err != nil {
			return it, chk.Err("solve failed:\n%v", err)
		}

		// update
		for i := 0; i < n; i++ {
			o.prob.S[i] += o.dw[i]
		}
		inc := la.VecNorm(o.dw)
		if o.showR {
			io.Pf("%13.6e%4d%23.15e%23.15e\n", t, it, res, inc)
		}

		// conjunctive check: residual and increment
		if res <= o.tolRes && inc <= o.tolInc {
			return
		}
	}
	return it, chk.Err("lumped model: Newton did not converge after %d iterations at t=%g", o.nmaxit, t)
}
