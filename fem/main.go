// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package fem implements the coupled solvers: the time-stepping drivers, the
// Newton iterations with pseudo-transient continuation, and the monolithic
// coupling of continuum fields with the lumped circulation
package fem

import (
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/daveb-dev/ambit/inp"
)

// Main holds all data for one simulation
type Main struct {
	Sim     *inp.Simulation // simulation data
	Dom     *Domain         // coupled domain
	Solver  Solver          // time-loop solver; e.g. flow0d, coupled
	Nproc   int             // number of processors
	Proc    int             // processor id
	ShowMsg bool            // show messages
}

// NewMain returns a new Main structure
//  Input:
//   simfilepath   -- simulation (.sim) filename including full path
//   alias         -- word to be appended to simulation key
//   erasePrev     -- erase previous results files
//   allowParallel -- allow parallel execution; otherwise, run in serial mode regardless whether MPI is on or not
//   verbose       -- show messages
//   cont          -- continuum field coupled to the lumped model; may be nil
func NewMain(simfilepath, alias string, erasePrev, allowParallel, verbose bool, cont Continuum) (o *Main) {

	// new Main object
	o = new(Main)

	// fix erasePrev flag when MPI is on
	if mpi.IsOn() {
		if mpi.Rank() != 0 {
			erasePrev = false
		}
	}

	// read input data
	o.Sim = inp.ReadSim(simfilepath, alias, erasePrev)
	if o.Sim == nil {
		chk.Panic("cannot read simulation input data")
	}

	// multiprocessing data
	o.Nproc = 1
	distr := false
	if mpi.IsOn() {
		if allowParallel {
			o.Proc = mpi.Rank()
			o.Nproc = mpi.Size()
			distr = o.Nproc > 1
			if distr {
				o.Sim.LinSol.Name = "mumps"
			}
		}
	} else {
		o.Sim.LinSol.Name = "umfpack"
	}
	o.ShowMsg = verbose && (o.Proc == 0)

	// message
	if o.ShowMsg {
		io.Pf("> Simulation (.sim) file read\n")
	}

	// allocate domain
	var err error
	o.Dom, err = NewDomain(o.Sim, cont, distr, o.Proc)
	if err != nil {
		chk.Panic("cannot allocate domain:\n%v", err)
	}

	// allocate solver
	if alloc, ok := allocators[o.Sim.Solver.Type]; ok {
		o.Solver = alloc(o.Dom)
	} else {
		chk.Panic("cannot find solver type named %q", o.Sim.Solver.Type)
	}
	return
}

// Run runs the simulation
func (o *Main) Run() (err error) {

	// timing
	cputime := time.Now()
	defer func() {
		if o.ShowMsg {
			io.Pf("\nfinal time = %v\n", o.Dom.T)
			io.Pf("cpu time   = %v\n", time.Now().Sub(cputime))
		}
	}()

	// message
	if o.ShowMsg {
		io.Pf("> Running solver\n")
	}

	// time loop
	return o.Solver.Run(o.Sim.Control.Tf, o.Sim.Control.DtFunc, o.Sim.Control.DtoFunc, o.ShowMsg)
}
