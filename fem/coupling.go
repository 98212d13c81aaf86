// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

// Monolithic coupling of the continuum field and the lumped circulation.
//
// Direct coupling keeps the lumped unknowns in the global system: the
// coupling quantities (chamber volumes or fluxes) are taken from the
// continuum surfaces and the cross blocks are assembled from the symbolic
// coupling derivatives of the lumped model.
//
// Lagrange coupling keeps interface multipliers in the global system: the
// lumped system is solved in a nested Newton for the current multipliers and
// the multiplier block of the Jacobian is obtained by finite differences of
// that inner solve

// coupRhs assembles the negative residual of the last block into Fb
func (o *SolverCoupled) coupRhs(t, Δt float64) {
	d := o.dom
	prob := d.Ode

	switch d.Coup {

	// lumped equations in the global system
	case CpNone, CpDirect:
		if d.Coup == CpDirect {
			for i, cid := range prob.Mdl.CIds() {
				prob.C[cid] = d.Cont.CoupQ(i)
			}
		}
		prob.Residual(Δt, t)
		for i := 0; i < d.Ns; i++ {
			d.Fb[d.Os+i] = -prob.R[i]
		}

	// constraint residual: continuum quantity against lumped variable,
	// theta-weighted like the continuum equations
	case CpLagrange:
		timefac := d.Sim.Solver.Theta
		vids := prob.Mdl.VIds()
		for i, vid := range vids {
			r := timefac*(d.Cont.CoupQ(i)-prob.S[vid]) + (1.0-timefac)*(d.Cont.CoupQOld(i)-prob.SOld[vid])
			d.Fb[d.Os+i] = -r
		}
	}
}

// coupKb assembles the coupling blocks and the last diagonal block of the
// global Jacobian
func (o *SolverCoupled) coupKb(t, Δt float64) (err error) {
	d := o.dom
	prob := d.Ode

	switch d.Coup {

	case CpNone:
		for i := 0; i < d.Ns; i++ {
			for j := 0; j < d.Ns; j++ {
				d.Kb.Put(d.Os+i, d.Os+j, prob.K[i][j])
			}
		}

	case CpDirect:

		// K_ss: lumped tangent
		for i := 0; i < d.Ns; i++ {
			for j := 0; j < d.Ns; j++ {
				d.Kb.Put(d.Os+i, d.Os+j, prob.K[i][j])
			}
		}

		// K_us: continuum residual w.r.t. the coupled lumped unknowns
		for i, vid := range prob.Mdl.VIds() {
			d.Cont.DRhsDLm(i, o.colbuf)
			for k := 0; k < d.Nu; k++ {
				if o.colbuf[k] != 0 {
					d.Kb.Put(d.Ou+k, d.Os+vid, o.colbuf[k])
				}
			}
		}

		// K_su: lumped residual w.r.t. the continuum through the coupling
		// quantities (chain rule with the symbolic coupling derivatives)
		prob.CoupK(Δt, t)
		for j, cid := range prob.Mdl.CIds() {
			d.Cont.DCoupDU(j, o.rowbuf)
			for i := 0; i < d.Ns; i++ {
				if prob.KC[i][cid] == 0 {
					continue
				}
				for k := 0; k < d.Nu; k++ {
					if o.rowbuf[k] != 0 {
						d.Kb.Put(d.Os+i, d.Ou+k, prob.KC[i][cid]*o.rowbuf[k])
					}
				}
			}
		}

	case CpLagrange:
		timefac := d.Sim.Solver.Theta

		// K_ss: finite differences of the nested solve (lagrangeStep)
		for i := 0; i < d.Ns; i++ {
			for j := 0; j < d.Ns; j++ {
				d.Kb.Put(d.Os+i, d.Os+j, o.kss[i][j])
			}
		}

		// K_us and K_su
		for i := 0; i < d.Ns; i++ {
			d.Cont.DRhsDLm(i, o.colbuf)
			d.Cont.DCoupDU(i, o.rowbuf)
			for k := 0; k < d.Nu; k++ {
				if o.colbuf[k] != 0 {
					d.Kb.Put(d.Ou+k, d.Os+i, o.colbuf[k])
				}
				if o.rowbuf[k] != 0 {
					d.Kb.Put(d.Os+i, d.Ou+k, timefac*o.rowbuf[k])
				}
			}
		}
	}
	return
}

// lagrangeStep solves the lumped system for the current multipliers and
// computes the multiplier block by finite differences of the inner Newton
// map: each multiplier is perturbed by eps and the inner solve repeated
//  kss[i][j] = -timefac * (s_pert[vid_i] - s[vid_i]) / eps
func (o *SolverCoupled) lagrangeStep(t, Δt float64) (err error) {
	d := o.dom
	prob := d.Ode
	eps := d.Sim.Solver.FdEps
	timefac := d.Sim.Solver.Theta
	vids := prob.Mdl.VIds()
	cids := prob.Mdl.CIds()

	// baseline inner solve at the current multipliers
	for i, cid := range cids {
		prob.C[cid] = d.Lm[i]
	}
	copy(o.sSave, prob.S)
	_, err = o.nln.Solve(t, Δt)
	if err != nil {
		return
	}
	copy(o.sBase, prob.S)

	// one perturbed inner solve per multiplier
	for j, cidj := range cids {
		copy(prob.S, o.sSave)
		prob.C[cidj] = d.Lm[j] + eps
		_, err = o.nln.Solve(t, Δt)
		if err != nil {
			return
		}
		for i, vid := range vids {
			o.kss[i][j] = -timefac * (prob.S[vid] - o.sBase[vid]) / eps
		}
		prob.C[cidj] = d.Lm[j]
	}
	copy(prob.S, o.sBase)
	return
}
