// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements post-processing of lumped-circulation results:
// reading the per-variable time series back and plotting time histories and
// pressure-volume loops
package out

import (
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/plt"
	"github.com/cpmech/gosl/utl"
)

// Series holds one result time series
type Series struct {
	Name string    // variable name
	T    []float64 // time values
	V    []float64 // variable values
}

// ReadSeries reads the series of one variable from dirout
func ReadSeries(dirout, name string) (s *Series, err error) {
	b, err := io.ReadFile(dirout + "/" + name + ".txt")
	if err != nil {
		return nil, chk.Err("cannot read series of %q in %q", name, dirout)
	}
	s = &Series{Name: name}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, chk.Err("malformed line %q in series of %q", line, name)
		}
		s.T = append(s.T, io.Atof(fields[0]))
		s.V = append(s.V, io.Atof(fields[1]))
	}
	return
}

// LastCycle clips the series to its last nstepcycl points; e.g. to plot one
// converged heart cycle only
func (o *Series) LastCycle(nstepcycl int) {
	if nstepcycl <= 0 || nstepcycl >= len(o.T) {
		return
	}
	o.T = o.T[len(o.T)-nstepcycl:]
	o.V = o.V[len(o.V)-nstepcycl:]
}

// PlotHistories plots the time history of each named variable into one
// figure with subplots, saved as <fnkey>.png in dirout
func PlotHistories(dirout, fnkey string, names []string) (err error) {
	nr, nc := utl.BestSquare(len(names))
	plt.Reset()
	for k, name := range names {
		s, err := ReadSeries(dirout, name)
		if err != nil {
			return err
		}
		plt.Subplot(nr, nc, k+1)
		plt.Plot(s.T, s.V, "clip_on=0")
		plt.Gll("$t$", io.Sf("$%s$", name), "")
	}
	plt.SaveD(dirout, fnkey+".png")
	return
}

// PlotPVLoop plots one pressure-volume loop, saved as <fnkey>.png in dirout.
// nstepcycl > 0 clips both series to the last cycle
func PlotPVLoop(dirout, fnkey, pname, vname string, nstepcycl int) (err error) {
	p, err := ReadSeries(dirout, pname)
	if err != nil {
		return
	}
	v, err := ReadSeries(dirout, vname)
	if err != nil {
		return
	}
	if len(p.V) != len(v.V) {
		return chk.Err("series %q and %q have different lengths: %d != %d", pname, vname, len(p.V), len(v.V))
	}
	p.LastCycle(nstepcycl)
	v.LastCycle(nstepcycl)
	plt.Reset()
	plt.Plot(v.V, p.V, "clip_on=0")
	plt.Gll(io.Sf("$%s$", vname), io.Sf("$%s$", pname), "")
	plt.SaveD(dirout, fnkey+".png")
	return
}
