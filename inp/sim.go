// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON file
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// Data holds global data for simulations
type Data struct {
	Desc   string `json:"desc"`   // description of simulation
	DirOut string `json:"dirout"` // directory for output; e.g. /tmp/ambit
	Stat   bool   `json:"stat"`   // activate statistics
}

// LinSolData holds data for linear solvers
type LinSolData struct {
	Name      string `json:"name"`      // "mumps" or "umfpack"
	Symmetric bool   `json:"symmetric"` // use symmetric solver
	Verbose   bool   `json:"verbose"`   // verbose?
	Timing    bool   `json:"timing"`    // show timing statistics
}

// SetDefault sets default values
func (o *LinSolData) SetDefault() {
	o.Name = "umfpack"
}

// SolverData holds nonlinear solver data
type SolverData struct {

	// nonlinear solver
	Type    string  `json:"type"`                // solver type: {flow0d, coupled}
	NmaxIt  int     `json:"maxiter"`             // max number of Newton iterations
	DvgCtrl bool    `json:"divergence_continue"` // enable reset-and-retry on divergence
	NdvgMax int     `json:"ndvgmax"`             // max number of retries after divergence
	ShowR   bool    `json:"showr"`               // show residuals during iterations

	// pseudo-transient continuation
	PTC          bool       `json:"ptc"`                 // start with PTC regularization enabled
	KPtcIni      float64    `json:"k_ptc_initial"`       // initial PTC factor
	PtcRandAdapt [2]float64 `json:"ptc_randadapt_range"` // re-damping jitter bounds

	// tolerances
	TolRes   float64 `json:"tol_res"`    // residual tolerance (continuum blocks)
	TolInc   float64 `json:"tol_inc"`    // increment tolerance (continuum blocks)
	TolRes0D float64 `json:"tol_res_0d"` // residual tolerance (lumped block); 0 => TolRes
	TolInc0D float64 `json:"tol_inc_0d"` // increment tolerance (lumped block); 0 => TolInc

	// linear solver
	SolveType   string  `json:"solve_type"`       // "direct" or "iterative"
	AdaptLinTol bool    `json:"adapt_linsolv_tol"` // adapt tolerance of iterative linear solver
	AdaptFactor float64 `json:"adapt_factor"`     // factor for adaptive linear solver tolerance
	TolLin      float64 `json:"tol_lin"`          // linear solver tolerance
	MaxLinIt    int     `json:"max_liniter"`      // max number of linear iterations

	// coupling
	FdEps float64 `json:"fd_eps"` // perturbation for finite-difference coupling Jacobian

	// transient analyses
	Theta float64 `json:"theta"` // θ-method factor for the continuum blocks
}

// SetDefault sets default values
func (o *SolverData) SetDefault() {
	o.Type = "flow0d"
	o.NmaxIt = 25
	o.NdvgMax = 50
	o.KPtcIni = 0.1
	o.PtcRandAdapt = [2]float64{0.85, 1.35}
	o.TolRes = 1e-8
	o.TolInc = 1e-8
	o.SolveType = "direct"
	o.AdaptFactor = 0.1
	o.TolLin = 1e-8
	o.MaxLinIt = 1200
	o.FdEps = 1e-5
	o.Theta = 1.0
}

// PostProcess fixes derived quantities
func (o *SolverData) PostProcess() {
	if o.TolRes0D < 1e-30 {
		o.TolRes0D = o.TolRes
	}
	if o.TolInc0D < 1e-30 {
		o.TolInc0D = o.TolInc
	}
}

// ChamberData holds the configuration of one heart chamber
type ChamberData struct {
	Model string `json:"model"` // chamber model: {0d_elast, prescr_elast, 3d_fem}
	Nintf int    `json:"nintf"` // number of coupling interfaces for 3d_fem chambers; 0 => 1
	Path  string `json:"path"`  // path with tabulated elastance data for prescr_elast chambers
}

// Flow0dData holds the configuration of the lumped (0D) circulatory model
type Flow0dData struct {

	// model selection and parameters
	Model string     `json:"model"` // model name: {2elwindkessel, rcloop, syspul}
	Prms  dbf.Params `json:"prms"`  // model parameters; model defaults are kept for absent names

	// chambers and coupling
	Chambers map[string]*ChamberData `json:"chambers"` // chamber configuration keyed by {lv, rv, la, ra}
	CoupQ    string                  `json:"cq"`       // coupling quantity: {volume, flux, pressure}
	CoupType string                  `json:"coupling"` // coupling mode: {monolithic_direct, monolithic_lagrange}
	Theta    float64                 `json:"theta"`    // θ-method factor of the 0D model

	// cycle monitoring and disease perturbation
	EpsPeriodic   float64 `json:"eps_periodic"`  // periodicity tolerance
	PeriodicCheck string  `json:"check"`         // periodicity criterion: {allvar, aggregate}
	Perturb       string  `json:"perturb_type"`  // disease perturbation: {"", mr, ms, ar, as}
	PerturbCycle  int     `json:"perturb_after"` // induce perturbation after this cycle; <=0 => disabled

	// initial conditions and prescribed variables
	InitialFile    string            `json:"initial_file"` // file with <name>_0 <value> pairs
	PrescribedVars map[string]string `json:"prescribed"`   // variable name => time curve name
	Curves         []string          `json:"curves"`       // time curve names consumed by the model (e.g. prescribed fluxes)
}

// SetDefault sets default values
func (o *Flow0dData) SetDefault() {
	o.Model = "syspul"
	o.CoupQ = "volume"
	o.CoupType = "monolithic_direct"
	o.Theta = 0.5
	o.EpsPeriodic = 1e-3
	o.PeriodicCheck = "allvar"
}

// TimeControl holds data defining the simulation time stepping
type TimeControl struct {
	Tf     float64 `json:"tf"`     // final time
	Dt     float64 `json:"dt"`     // time step size (if constant)
	DtOut  float64 `json:"dtout"`  // time step size for output
	DtFcn  string  `json:"dtfcn"`  // time step size (function name)
	DtoFcn string  `json:"dtofcn"` // output time step size (function name)

	// derived
	DtFunc  fun.Func // time step function
	DtoFunc fun.Func // output time step function
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data      Data        `json:"data"`      // global data
	Functions FuncsData   `json:"functions"` // time curves
	LinSol    LinSolData  `json:"linsol"`    // linear solver data
	Solver    SolverData  `json:"solver"`    // nonlinear solver data
	Flow0d    Flow0dData  `json:"flow0d"`    // lumped model data
	Control   TimeControl `json:"control"`   // time stepping control

	// derived
	DirOut string // directory to save results
	Key    string // simulation key; e.g. mysim01.sim => mysim01 or mysim01-alias
}

// ReadSim reads all simulation data from a .sim JSON file
func ReadSim(simfilepath, alias string, erasePrev bool) *Simulation {

	// new sim
	var o Simulation

	// read file
	b, err := io.ReadFile(simfilepath)
	if err != nil {
		chk.Panic("ReadSim: cannot read simulation file %q", simfilepath)
	}

	// set default values
	o.Solver.SetDefault()
	o.LinSol.SetDefault()
	o.Flow0d.SetDefault()

	// decode
	err = json.Unmarshal(b, &o)
	if err != nil {
		chk.Panic("ReadSim: cannot unmarshal simulation file %q", simfilepath)
	}

	// filename key
	fnkey := io.FnKey(filepath.Base(simfilepath))
	o.Key = fnkey
	if alias != "" {
		o.Key += "-" + alias
	}

	// output directory
	o.DirOut = o.Data.DirOut
	if o.DirOut == "" {
		o.DirOut = "/tmp/ambit/" + fnkey
	}
	err = os.MkdirAll(o.DirOut, 0777)
	if err != nil {
		chk.Panic("cannot create directory for output results (%s): %v", o.DirOut, err)
	}

	// erase previous simulation results
	if erasePrev {
		io.RemoveAll(io.Sf("%s/%s*", o.DirOut, fnkey))
	}

	// set solver constants
	o.Solver.PostProcess()

	// fix Tf
	if o.Control.Tf < 1e-14 {
		o.Control.Tf = 1
	}

	// fix Dt
	if o.Control.DtFcn == "" {
		if o.Control.Dt < 1e-14 {
			o.Control.Dt = 1
		}
		o.Control.DtFunc = &fun.Cte{C: o.Control.Dt}
	} else {
		o.Control.DtFunc, err = o.Functions.Get(o.Control.DtFcn)
		if err != nil {
			chk.Panic("%v", err)
		}
		o.Control.Dt = o.Control.DtFunc.F(0, nil)
	}

	// fix DtOut
	if o.Control.DtoFcn == "" {
		if o.Control.DtOut < 1e-14 {
			o.Control.DtOut = o.Control.Dt
			o.Control.DtoFunc = o.Control.DtFunc
		} else {
			if o.Control.DtOut < o.Control.Dt {
				o.Control.DtOut = o.Control.Dt
			}
			o.Control.DtoFunc = &fun.Cte{C: o.Control.DtOut}
		}
	} else {
		o.Control.DtoFunc, err = o.Functions.Get(o.Control.DtoFcn)
		if err != nil {
			chk.Panic("%v", err)
		}
	}
	return &o
}
