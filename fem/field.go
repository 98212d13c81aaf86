// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/la"
)

// Continuum is implemented by a spatially resolved field (e.g. a FEM heart
// chamber) coupled to the lumped circulation through its boundary surfaces.
// The field owns its discretisation; this package only sees residuals,
// tangent blocks and the coupling quantities on the interfaces
type Continuum interface {

	// degrees of freedom
	NdofU() int // number of primary unknowns
	NdofP() int // number of constraint unknowns; 0 when absent
	NnzKb() int // upper bound for the number of nonzeros of the field's tangent blocks

	// assembly. fb receives the negative of the residual in the slots
	// [ou:ou+ndofU) and [op:op+ndofP); kb receives the tangent blocks at the
	// same offsets. lm holds the current interface multiplier (or chamber
	// pressure) values
	AddToRhs(fb []float64, ou, op int, lm []float64, t, dt float64) error
	AddToKb(kb *la.Triplet, ou, op int, t, dt float64, firstIt bool) error

	// essential boundary conditions on the negative residual
	ApplyEssenBcs(fb []float64, ou, op int, t float64)

	// primary variable updates with the solved increments
	UpdateU(du []float64)
	UpdateP(dp []float64)

	// step management for divergence recovery
	Backup()
	Restore()

	// coupling surfaces
	NumCoupSurf() int               // number of coupling surfaces
	CoupQ(i int) float64            // current coupling quantity on surface i (volume or flux)
	CoupQOld(i int) float64         // committed coupling quantity on surface i
	DCoupDU(i int, row []float64)   // ∂c_i/∂u into row (length ndofU)
	DRhsDLm(i int, col []float64)   // ∂r_u/∂λ_i into col (length ndofU)

	// step commit
	Update(t, dt float64) error
}

// LocalNonlin is implemented by continuum fields carrying local (e.g. Gauss
// point) nonlinearities that must be re-solved at every global iteration
type LocalNonlin interface {
	SolveLocal(t, dt float64) error
}

// TolerantSolver is implemented by iterative linear solvers whose tolerance
// can be adapted from the current nonlinear residual
type TolerantSolver interface {
	SetTol(tol float64, maxit int)
}

// Solver implements the actual solver (time loop)
type Solver interface {
	Run(tf float64, dtFunc, dtoFunc fun.Func, verbose bool) (err error)
}

// allocators holds all available solvers
var allocators = make(map[string]func(dom *Domain) Solver)
