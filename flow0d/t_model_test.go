// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"os"
	"strings"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

func Test_model01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model01. windkessel evaluation")

	// unknown models are a configuration error
	if _, err := New("4elwindkessel", &Config{Theta: 1}, nil); err == nil {
		tst.Errorf("unknown model name must be detected\n")
		return
	}

	cfg := &Config{Theta: 1, Curves: []fun.Func{&fun.Cte{C: 3}}}
	prms := []*dbf.P{
		&dbf.P{N: "C", V: 2},
		&dbf.P{N: "R", V: 4},
		&dbf.P{N: "p_ref", V: 1},
	}
	mdl, err := New("2elwindkessel", cfg, prms)
	if err != nil {
		tst.Errorf("cannot allocate model: %v\n", err)
		return
	}
	chk.IntAssert(mdl.NumDof(), 1)
	chk.IntAssert(mdl.NumFnc(), 1)
	chk.Strings(tst, "vars", mdl.Vars(), []string{"p"})

	// df = C p ; f = (p - p_ref)/R - Q ; K = C/dt + θ/R
	dt, t := 0.1, 0.0
	x := []float64{5}
	df, f := []float64{0}, []float64{0}
	K := la.MatAlloc(1, 1)
	a := []float64{0}
	fnc := make([]float64, 1)
	mdl.EvalFncs(t, fnc)
	mdl.Evaluate(x, dt, t, df, f, K, nil, a, fnc)
	chk.Scalar(tst, "df", 1e-15, df[0], 10)
	chk.Scalar(tst, "f ", 1e-15, f[0], -2)
	chk.Scalar(tst, "K ", 1e-15, K[0][0], 2.0/dt+0.25)
	chk.Scalar(tst, "a ", 1e-15, a[0], 3)
}

func Test_model02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model02. rcloop tangent vs finite differences")

	cfg := &Config{Theta: 0.5}
	mdl, err := New("rcloop", cfg, nil)
	if err != nil {
		tst.Errorf("cannot allocate model: %v\n", err)
		return
	}
	n := mdl.NumDof()
	chk.IntAssert(n, 2)

	dt, t := 0.01, 0.37
	x := []float64{1.2, 8.3}
	fnc := make([]float64, mdl.NumFnc())
	mdl.EvalFncs(t, fnc)

	// analytic tangent
	K := la.MatAlloc(n, n)
	mdl.Evaluate(x, dt, t, nil, nil, K, nil, nil, fnc)

	// numerical tangent of r_i(x) = df_i(x)/dt + θ f_i(x)
	θ := mdl.Theta()
	h := 1e-6
	df, f := make([]float64, n), make([]float64, n)
	xp := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			copy(xp, x)
			xp[j] = x[j] + h
			mdl.Evaluate(xp, dt, t, df, f, nil, nil, nil, fnc)
			rp := df[i]/dt + θ*f[i]
			xp[j] = x[j] - h
			mdl.Evaluate(xp, dt, t, df, f, nil, nil, nil, fnc)
			rm := df[i]/dt + θ*f[i]
			chk.AnaNum(tst, io.Sf("K[%d][%d]", i, j), 1e-4, K[i][j], (rp-rm)/(2*h), chk.Verbose)
		}
	}
}

func Test_model03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model03. prescribed variables")

	cfg := &Config{Theta: 1}
	mdl, err := New("rcloop", cfg, nil)
	if err != nil {
		tst.Errorf("cannot allocate model: %v\n", err)
		return
	}
	n := mdl.NumDof()
	x := []float64{2.5, 0.5}
	r := []float64{11, 22}
	K := la.MatAlloc(n, n)
	la.MatFill(K, 7)

	mdl.SetPrescribedVariables(x, r, K, 9.0, 0)
	chk.Scalar(tst, "r[0]", 1e-15, r[0], x[0]-9.0)
	chk.Scalar(tst, "r[1]", 1e-15, r[1], 22)
	chk.Vector(tst, "K row 0", 1e-15, K[0], []float64{1, 0})
	chk.Vector(tst, "K row 1", 1e-15, K[1], []float64{7, 7})
}

func Test_model04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model04. cycle boundary and periodicity")

	// modulo-near-zero with relative tolerance
	chk.IntAssert(b2i(ModuloIsRelativeZero(3.0, 1.0, 3.0)), 1)
	chk.IntAssert(b2i(ModuloIsRelativeZero(3.0+1e-14, 1.0, 3.0)), 1)
	chk.IntAssert(b2i(ModuloIsRelativeZero(3.5, 1.0, 3.5)), 0)

	cfg := &Config{Theta: 1}
	mdl, err := New("rcloop", cfg, nil)
	if err != nil {
		tst.Errorf("cannot allocate model: %v\n", err)
		return
	}
	prob := NewProblem(mdl)
	prob.EpsPeriodic = 1e-3

	// off the cycle boundary: no check
	copy(prob.S, []float64{1, 2})
	if prob.CycleCheck(0.5, "") {
		tst.Errorf("no cycle check off the boundary\n")
		return
	}
	chk.IntAssert(prob.Cycle, 1)

	// first boundary: snapshots differ from the zero initial snapshot
	if prob.CycleCheck(1.0, "") {
		tst.Errorf("differing snapshots must not be periodic\n")
		return
	}
	chk.IntAssert(prob.Cycle, 2)

	// identical state one cycle later: periodic
	if !prob.CycleCheck(2.0, "") {
		tst.Errorf("identical snapshots must be periodic\n")
		return
	}
	chk.IntAssert(prob.Cycle, 3)
	chk.Scalar(tst, "cyclerr", 1e-15, prob.CycleErr, 0)
}

func Test_model05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model05. initial conditions roundtrip")

	dirout := "/tmp/ambit/t_model05"
	err := os.MkdirAll(dirout, 0777)
	if err != nil {
		tst.Errorf("cannot create test directory: %v\n", err)
		return
	}

	cfg := &Config{Theta: 1}
	mdl, err := New("rcloop", cfg, nil)
	if err != nil {
		tst.Errorf("cannot allocate model: %v\n", err)
		return
	}

	// 17 significant digits: bit-exact roundtrip
	varTcOld := []float64{1.2345678901234567e+02, -7.0e-9}
	varTc := []float64{0.9999999999999998, 3.0}
	err = mdl.WriteInitial(dirout, varTcOld, varTc)
	if err != nil {
		tst.Errorf("cannot write initial conditions: %v\n", err)
		return
	}
	ini, err := mdl.InitialFromFile(dirout + "/initial_data_Tend.txt")
	if err != nil {
		tst.Errorf("cannot read initial conditions: %v\n", err)
		return
	}
	v := make([]float64, 2)
	mdl.SetInitial(v, ini)
	chk.Vector(tst, "v", 1e-17, v, varTc)

	// malformed files are detected
	io.WriteFileSD(dirout, "bad.txt", "p_v_0 1.0 extra\n")
	if _, err := mdl.InitialFromFile(dirout + "/bad.txt"); err == nil {
		tst.Errorf("malformed initial conditions must be detected\n")
	}
}

func Test_model06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model06. theta-midpoint output")

	cfg := &Config{Theta: 0.5, Curves: []fun.Func{&fun.Cte{C: 1}}}
	mdl, err := New("2elwindkessel", cfg, nil)
	if err != nil {
		tst.Errorf("cannot allocate model: %v\n", err)
		return
	}

	// the midpoint averages the current and the committed values, for the
	// unknowns and the auxiliary outputs alike
	vmid := make([]float64, 1)
	mdl.MidpointAvg([]float64{4}, []float64{2}, vmid)
	chk.Vector(tst, "vmid", 1e-15, vmid, []float64{3})

	// the raw output carries the midpoint state
	prob := NewProblem(mdl)
	prob.SOld[0] = 2.0
	prob.S[0] = 4.0
	prob.AuxOld[0] = 3.0
	prob.Aux[0] = 1.0
	dirout := "/tmp/ambit/t_model06"
	os.MkdirAll(dirout, 0777)
	err = prob.WriteOutput(dirout, 0.1)
	if err != nil {
		tst.Errorf("cannot write results: %v\n", err)
		return
	}
	b, err := io.ReadFile(dirout + "/p.txt")
	if err != nil {
		tst.Errorf("cannot read p series: %v\n", err)
		return
	}
	fields := strings.Fields(string(b))
	chk.Scalar(tst, "p mid", 1e-15, io.Atof(fields[1]), 3.0)
	b, err = io.ReadFile(dirout + "/Q.txt")
	if err != nil {
		tst.Errorf("cannot read Q series: %v\n", err)
		return
	}
	fields = strings.Fields(string(b))
	chk.Scalar(tst, "Q mid", 1e-15, io.Atof(fields[1]), 2.0)
}
