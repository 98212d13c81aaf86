// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/daveb-dev/ambit/inp"
)

func newTestSim() (sim *inp.Simulation) {
	sim = new(inp.Simulation)
	sim.Solver.SetDefault()
	sim.LinSol.SetDefault()
	sim.Flow0d.SetDefault()
	sim.Solver.PostProcess()
	return
}

func Test_domain01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain01. configuration errors")

	// iterative linear solvers are not available
	sim := newTestSim()
	sim.Solver.SolveType = "iterative"
	if _, err := NewDomain(sim, nil, false, 0); err == nil {
		tst.Errorf("unknown solve type must be detected\n")
		return
	}

	// unknown lumped model
	sim = newTestSim()
	sim.Flow0d.Model = "4elwindkessel"
	if _, err := NewDomain(sim, nil, false, 0); err == nil {
		tst.Errorf("unknown lumped model must be detected\n")
		return
	}

	// unknown coupling quantity
	sim = newTestSim()
	sim.Flow0d.CoupQ = "mass"
	if _, err := NewDomain(sim, nil, false, 0); err == nil {
		tst.Errorf("unknown coupling quantity must be detected\n")
		return
	}

	// unknown disease perturbation
	sim = newTestSim()
	sim.Flow0d.Perturb = "xy"
	if _, err := NewDomain(sim, nil, false, 0); err == nil {
		tst.Errorf("unknown perturbation type must be detected\n")
		return
	}

	// prescribing a variable the model does not have
	sim = newTestSim()
	sim.Flow0d.PrescribedVars = map[string]string{"p_bogus": "zero"}
	if _, err := NewDomain(sim, nil, false, 0); err == nil {
		tst.Errorf("unknown prescribed variable must be detected\n")
		return
	}

	// unknown coupling mode
	sim = newTestSim()
	sim.Flow0d.CoupType = "partitioned"
	cont := &springChamber{k: 1, A: 1}
	if _, err := NewDomain(sim, cont, false, 0); err == nil {
		tst.Errorf("unknown coupling mode must be detected\n")
		return
	}

	// surface count must match the lumped coupling interfaces
	sim = newTestSim()
	if _, err := NewDomain(sim, cont, false, 0); err == nil {
		tst.Errorf("surface count mismatch must be detected\n")
	}
}

func Test_domain02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain02. standalone layout")

	sim := newTestSim()
	dom, err := NewDomain(sim, nil, false, 0)
	if err != nil {
		tst.Errorf("NewDomain failed:\n%v", err)
		return
	}
	chk.IntAssert(dom.Coup, CpNone)
	chk.IntAssert(dom.Ns, 16)
	chk.IntAssert(dom.Ntot, 16)
	chk.IntAssert(dom.Ou, 0)
	chk.IntAssert(dom.Os, 0)
}
