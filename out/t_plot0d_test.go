// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func Test_series01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("series01. read time series and clip cycles")

	dirout := "/tmp/ambit/t_series01"
	err := os.MkdirAll(dirout, 0777)
	if err != nil {
		tst.Errorf("cannot create test directory: %v\n", err)
		return
	}
	io.WriteFileSD(dirout, "p_v_l.txt",
		"0.0000000000000000E+00 1.0000000000000000E+00\n"+
			"1.0000000000000001E-01 2.0000000000000000E+00\n"+
			"2.0000000000000001E-01 4.0000000000000000E+00\n"+
			"2.9999999999999999E-01 8.0000000000000000E+00\n")

	s, err := ReadSeries(dirout, "p_v_l")
	if err != nil {
		tst.Errorf("cannot read series:\n%v", err)
		return
	}
	chk.StrAssert(s.Name, "p_v_l")
	chk.Vector(tst, "T", 1e-17, s.T, []float64{0, 0.1, 0.2, 0.3})
	chk.Vector(tst, "V", 1e-17, s.V, []float64{1, 2, 4, 8})

	// clip to the last two points
	s.LastCycle(2)
	chk.Vector(tst, "T clipped", 1e-17, s.T, []float64{0.2, 0.3})
	chk.Vector(tst, "V clipped", 1e-17, s.V, []float64{4, 8})

	// clipping longer than the series is a no-op
	s.LastCycle(10)
	chk.IntAssert(len(s.T), 2)

	// missing series and malformed lines are errors
	if _, err := ReadSeries(dirout, "nope"); err == nil {
		tst.Errorf("missing series must be detected\n")
		return
	}
	io.WriteFileSD(dirout, "bad.txt", "1.0 2.0 3.0\n")
	if _, err := ReadSeries(dirout, "bad"); err == nil {
		tst.Errorf("malformed series must be detected\n")
	}
}

func Test_plot01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("plot01. histories and pv loop")

	dirout := "/tmp/ambit/t_plot01"
	err := os.MkdirAll(dirout, 0777)
	if err != nil {
		tst.Errorf("cannot create test directory: %v\n", err)
		return
	}
	io.WriteFileSD(dirout, "p_v_l.txt", "0 1\n1 2\n2 1\n")
	io.WriteFileSD(dirout, "V_v_l.txt", "0 50\n1 80\n2 50\n")

	// mismatching series lengths are detected without plotting
	io.WriteFileSD(dirout, "short.txt", "0 1\n")
	if err := PlotPVLoop(dirout, "pvshort", "p_v_l", "short", 0); err == nil {
		tst.Errorf("length mismatch must be detected\n")
		return
	}

	if chk.Verbose {
		err = PlotHistories(dirout, "histories", []string{"p_v_l", "V_v_l"})
		if err != nil {
			tst.Errorf("PlotHistories failed:\n%v", err)
			return
		}
		err = PlotPVLoop(dirout, "pvloop", "p_v_l", "V_v_l", 0)
		if err != nil {
			tst.Errorf("PlotPVLoop failed:\n%v", err)
		}
	}
}
