// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// springChamber mimics a continuum heart chamber with a single displacement
// unknown: a linear spring loaded by the chamber pressure. The coupling
// quantity on its single surface is proportional to the displacement
type springChamber struct {
	k, A float64 // spring stiffness and surface gain
	u    float64 // displacement
	uOld float64 // committed displacement
	uBkp float64 // backup for divergence recovery
}

func (o *springChamber) NdofU() int { return 1 }
func (o *springChamber) NdofP() int { return 0 }
func (o *springChamber) NnzKb() int { return 1 }

func (o *springChamber) AddToRhs(fb []float64, ou, op int, lm []float64, t, dt float64) error {
	fb[ou] -= o.k*o.u - o.A*lm[0]
	return nil
}

func (o *springChamber) AddToKb(kb *la.Triplet, ou, op int, t, dt float64, firstIt bool) error {
	kb.Put(ou, ou, o.k)
	return nil
}

func (o *springChamber) ApplyEssenBcs(fb []float64, ou, op int, t float64) {}

func (o *springChamber) UpdateU(du []float64) { o.u += du[0] }
func (o *springChamber) UpdateP(dp []float64) {}

func (o *springChamber) Backup()  { o.uBkp = o.u }
func (o *springChamber) Restore() { o.u = o.uBkp }

func (o *springChamber) NumCoupSurf() int              { return 1 }
func (o *springChamber) CoupQ(i int) float64           { return o.A * o.u }
func (o *springChamber) CoupQOld(i int) float64        { return o.A * o.uOld }
func (o *springChamber) DCoupDU(i int, row []float64)  { row[0] = o.A }
func (o *springChamber) DRhsDLm(i int, col []float64)  { col[0] = -o.A }

func (o *springChamber) Update(t, dt float64) error {
	o.uOld = o.u
	return nil
}

// faultySpring corrupts its residual assembly a fixed number of iterations,
// driving the coupled solver into its divergence recovery
type faultySpring struct {
	springChamber
	nbad int
}

func (o *faultySpring) AddToRhs(fb []float64, ou, op int, lm []float64, t, dt float64) error {
	if o.nbad > 0 {
		o.nbad--
		fb[ou] = 1e30
		return nil
	}
	return o.springChamber.AddToRhs(fb, ou, op, lm, t, dt)
}

func Test_coupled01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("coupled01. direct coupling with a spring chamber")

	cont := &springChamber{k: 2.0, A: 3.0}
	analysis := NewMain("data/syspul_direct.sim", "", true, false, chk.Verbose, cont)
	chk.IntAssert(analysis.Dom.Coup, CpDirect)
	chk.IntAssert(analysis.Dom.Ntot, 1+16)

	err := analysis.Run()
	if err != nil {
		tst.Errorf("Run failed:\n%v", err)
		return
	}

	// converged coupled state: the spring carries the chamber pressure and
	// the lumped model sees the chamber volume from the displacement
	prob := analysis.Dom.Ode
	if cont.u == 0 {
		tst.Errorf("chamber did not inflate\n")
		return
	}
	chk.Scalar(tst, "spring equilibrium", 1e-6, cont.k*cont.u, cont.A*prob.S[3])
	chk.Scalar(tst, "coupled volume", 1e-12, prob.C[0], cont.A*cont.u)
}

func Test_coupled02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("coupled02. Lagrange coupling with a spring chamber")

	cont := &springChamber{k: 2.0, A: 3.0}
	analysis := NewMain("data/syspul_lagrange.sim", "", true, false, chk.Verbose, cont)
	d := analysis.Dom
	chk.IntAssert(d.Coup, CpLagrange)
	chk.IntAssert(d.Ns, 1)
	chk.IntAssert(d.Ntot, 1+1)

	// the multiplier stands for the chamber pressure and must start from its
	// initial condition
	chk.Scalar(tst, "seeded multiplier", 1e-15, d.Lm[0], 0.5)
	chk.Scalar(tst, "seeded committed multiplier", 1e-15, d.LmOld[0], 0.5)

	err := analysis.Run()
	if err != nil {
		tst.Errorf("Run failed:\n%v", err)
		return
	}

	// converged coupled state: the constraint ties the surface flux to the
	// lumped chamber outflux, and the spring carries the multiplier
	// (the chamber pressure)
	prob := d.Ode
	if cont.u == 0 {
		tst.Errorf("chamber did not inflate\n")
		return
	}
	chk.Scalar(tst, "constraint", 1e-6, cont.A*cont.u, prob.S[3])
	chk.Scalar(tst, "spring equilibrium", 1e-6, cont.k*cont.u, cont.A*d.Lm[0])
}

func Test_coupled03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("coupled03. divergence recovery with re-seeded damping")

	cont := &faultySpring{springChamber: springChamber{k: 2.0, A: 3.0}, nbad: 2}
	analysis := NewMain("data/syspul_dvg.sim", "", true, false, chk.Verbose, cont)
	sol := analysis.Solver.(*SolverCoupled)
	dat := analysis.Sim.Solver

	err := analysis.Run()
	if err != nil {
		tst.Errorf("Run failed:\n%v", err)
		return
	}

	// the corrupted attempts were restored and retried; the remaining steps
	// converged to the coupled equilibrium
	chk.IntAssert(cont.nbad, 0)
	prob := analysis.Dom.Ode
	if cont.u == 0 {
		tst.Errorf("chamber did not inflate\n")
		return
	}
	chk.Scalar(tst, "spring equilibrium", 1e-6, cont.k*cont.u, cont.A*prob.S[3])

	// the recovery is transient: the damping is disabled again and its
	// factor re-initialised after the recovered step converged
	if sol.ptc {
		tst.Errorf("damping still active after converged steps\n")
		return
	}
	chk.Scalar(tst, "damping factor", 1e-15, sol.kPtc, dat.KPtcIni)
}

func Test_coupled04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("coupled04. bounded number of divergence retries")

	cont := &faultySpring{springChamber: springChamber{k: 2.0, A: 3.0}, nbad: 100}
	analysis := NewMain("data/syspul_dvg.sim", "", true, false, chk.Verbose, cont)
	err := analysis.Run()
	if err == nil {
		tst.Errorf("expected failure after exhausting the divergence retries\n")
	}
}
