// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"math"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// ChamberModel is the closed enumeration of chamber models
type ChamberModel int

const (
	Elast0D     ChamberModel = iota // time-varying elastance chamber
	PrescrElast                     // prescribed (measured) elastance chamber
	Fem3D                           // chamber resolved by a continuum (FEM) field
)

// CoupQuantity is the closed enumeration of quantities exchanged with the
// continuum field at a coupling interface
type CoupQuantity int

const (
	CqVolume CoupQuantity = iota
	CqFlux
	CqPressure
)

// PerturbKind is the closed enumeration of disease perturbations
type PerturbKind int

const (
	PerturbNone PerturbKind = iota
	PerturbMR               // mitral regurgitation
	PerturbMS               // mitral stenosis
	PerturbAR               // aortic regurgitation
	PerturbAS               // aortic stenosis
)

// ChamberModelByName parses a chamber model name
func ChamberModelByName(name string) (ChamberModel, error) {
	switch strings.ToLower(name) {
	case "0d_elast":
		return Elast0D, nil
	case "prescr_elast":
		return PrescrElast, nil
	case "3d_fem":
		return Fem3D, nil
	}
	return 0, chk.Err("unknown chamber model %q", name)
}

// CoupQuantityByName parses a coupling quantity name
func CoupQuantityByName(name string) (CoupQuantity, error) {
	switch strings.ToLower(name) {
	case "", "volume":
		return CqVolume, nil
	case "flux":
		return CqFlux, nil
	case "pressure":
		return CqPressure, nil
	}
	return 0, chk.Err("unknown coupling quantity %q", name)
}

// PerturbByName parses a disease perturbation name
func PerturbByName(name string) (PerturbKind, error) {
	switch strings.ToLower(name) {
	case "":
		return PerturbNone, nil
	case "mr":
		return PerturbMR, nil
	case "ms":
		return PerturbMS, nil
	case "ar":
		return PerturbAR, nil
	case "as":
		return PerturbAS, nil
	}
	return 0, chk.Err("unknown perturbation type %q", name)
}

func (o PerturbKind) String() string {
	switch o {
	case PerturbMR:
		return "mr"
	case PerturbMS:
		return "ms"
	case PerturbAR:
		return "ar"
	case PerturbAS:
		return "as"
	}
	return "none"
}

// Chamber holds the configuration and state of one heart chamber
type Chamber struct {
	Name  string       // one of lv, rv, la, ra
	Model ChamberModel // chamber model
	Nintf int          // number of 3D coupling interfaces (1 or 2)

	// prescribed elastance data (PrescrElast only)
	ElastVals []float64 // tabulated elastance over one cycle
	ElastTime []float64 // equidistant time array over one cycle
}

// LoadPrescribedElastance reads a tabulated elastance curve (one value per
// line) and builds the equidistant time array covering one cycle of length
// Tcycl. The data is interpreted as periodic
func (o *Chamber) LoadPrescribedElastance(path string, Tcycl float64) (err error) {
	b, err := io.ReadFile(path)
	if err != nil {
		return chk.Err("cannot read prescribed elastance file %q for chamber %s", path, o.Name)
	}
	var vals []float64
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		vals = append(vals, io.Atof(line))
	}
	if len(vals) < 2 {
		return chk.Err("prescribed elastance file %q must have at least 2 entries", path)
	}
	o.ElastVals = vals
	o.ElastTime = make([]float64, len(vals))
	for i := range vals {
		o.ElastTime[i] = float64(i+1) * Tcycl / float64(len(vals))
	}
	return
}

// Et computes the time-varying elastance with a half-cosine activation
// profile between onset t0 and t0+dur, clamped to Emin outside the window.
// EA is the activation amplitude Emax-Emin
func Et(EA, Emin, t, t0, dur float64) float64 {
	y := 0.0
	if t >= t0 && t <= t0+dur {
		y = 0.5 * (1.0 - math.Cos(2.0*math.Pi*(t-t0)/dur))
	}
	return EA*y + Emin
}

// Ep computes the prescribed (measured) elastance by linear interpolation of
// the tabulated, time-periodized elastance curve
func Ep(evals, tvals []float64, t float64) float64 {
	n := len(tvals)
	T := tvals[n-1]
	tt := math.Mod(t, T)
	if tt <= tvals[0] {
		// interpolate within the wrap-around segment
		w := (tt + T - tvals[n-1]) / (tvals[0] + T - tvals[n-1])
		return evals[n-1] + w*(evals[0]-evals[n-1])
	}
	for i := 1; i < n; i++ {
		if tt <= tvals[i] {
			w := (tt - tvals[i-1]) / (tvals[i] - tvals[i-1])
			return evals[i-1] + w*(evals[i]-evals[i-1])
		}
	}
	return evals[n-1]
}
