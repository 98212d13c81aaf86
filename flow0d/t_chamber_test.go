// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_elast01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("elast01. activation profile")

	EA, Emin := 2.0, 0.5
	t0, dur := 0.4, 0.33

	// flat before and after the activation window
	chk.Scalar(tst, "E(t<t0)      ", 1e-15, Et(EA, Emin, 0.2, t0, dur), Emin)
	chk.Scalar(tst, "E(t>t0+dur)  ", 1e-15, Et(EA, Emin, 0.9, t0, dur), Emin)

	// half-cosine: zero slope at the window edges, peak at its centre
	chk.Scalar(tst, "E(t0)        ", 1e-15, Et(EA, Emin, t0, t0, dur), Emin)
	chk.Scalar(tst, "E(t0+dur)    ", 1e-12, Et(EA, Emin, t0+dur, t0, dur), Emin)
	chk.Scalar(tst, "E(t0+dur/2)  ", 1e-12, Et(EA, Emin, t0+dur/2, t0, dur), Emin+EA)
}

func Test_elast02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("elast02. prescribed elastance interpolation")

	// tabulated over one cycle of length 1 on the equidistant grid (i+1)/n
	evals := []float64{1, 2, 3, 4}
	tvals := []float64{0.25, 0.5, 0.75, 1.0}

	// exact at the nodes
	chk.Scalar(tst, "E(0.25)", 1e-15, Ep(evals, tvals, 0.25), 1)
	chk.Scalar(tst, "E(0.75)", 1e-15, Ep(evals, tvals, 0.75), 3)

	// linear in between
	chk.Scalar(tst, "E(0.50+eps)", 1e-12, Ep(evals, tvals, 0.625), 2.5)

	// periodic wrap-around: the segment from the last to the first node
	chk.Scalar(tst, "E(0.125)", 1e-12, Ep(evals, tvals, 0.125), 2.5)
	chk.Scalar(tst, "E(1.125)", 1e-12, Ep(evals, tvals, 1.125), 2.5)
}

func Test_chamber01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("chamber01. name parsers")

	m, err := ChamberModelByName("3d_fem")
	if err != nil {
		tst.Errorf("parse failed: %v\n", err)
		return
	}
	chk.IntAssert(int(m), int(Fem3D))

	if _, err := ChamberModelByName("spring"); err == nil {
		tst.Errorf("invalid chamber model must be detected\n")
	}
	if _, err := CoupQuantityByName("work"); err == nil {
		tst.Errorf("invalid coupling quantity must be detected\n")
	}
	if _, err := PerturbByName("flu"); err == nil {
		tst.Errorf("invalid perturbation type must be detected\n")
	}

	// empty coupling quantity defaults to volume
	cq, err := CoupQuantityByName("")
	if err != nil {
		tst.Errorf("parse failed: %v\n", err)
		return
	}
	chk.IntAssert(int(cq), int(CqVolume))
}
