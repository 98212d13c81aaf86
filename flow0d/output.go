// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"os"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// WriteOutput appends one line "<time> <value>" to the per-variable and
// per-auxiliary time-series files. The first write of a run truncates the
// files; subsequent writes append
func (o *Base) WriteOutput(path string, t float64, v, aux []float64) (err error) {
	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if o.firstOut {
		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	o.firstOut = false
	write := func(name string, val float64) error {
		f, err := os.OpenFile(path+"/"+name+".txt", flag, 0644)
		if err != nil {
			return chk.Err("cannot open output file for %q:\n%v", name, err)
		}
		defer f.Close()
		_, err = f.WriteString(io.Sf("%.16E %.16E\n", t, val))
		return err
	}
	for i, name := range o.Vnames {
		if err = write(name, v[i]); err != nil {
			return
		}
	}
	for i, name := range o.Anames {
		if err = write(name, aux[i]); err != nil {
			return
		}
	}
	return
}

// WriteInitial persists the two cycle snapshots as named initial conditions:
// one file with the conditions at the beginning of the cycle and one with the
// conditions at its end. These files can seed a new simulation starting from
// a periodic (homeostatic) state
func (o *Base) WriteInitial(path string, varTcOld, varTc []float64) (err error) {
	write := func(fname string, vals []float64) error {
		var sb strings.Builder
		for i, name := range o.Vnames {
			sb.WriteString(io.Sf("%s_0 %.16E\n", name, vals[i]))
		}
		return os.WriteFile(path+"/"+fname, []byte(sb.String()), 0644)
	}
	err = write("initial_data_Tstart.txt", varTcOld)
	if err != nil {
		return
	}
	return write("initial_data_Tend.txt", varTc)
}

// InitialFromFile reads initial conditions from a text file with
// whitespace-separated "<name>_0 <value>" pairs
func (o *Base) InitialFromFile(path string) (ini map[string]float64, err error) {
	b, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read initial conditions file %q", path)
	}
	ini = make(map[string]float64)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, chk.Err("malformed line %q in initial conditions file %q", line, path)
		}
		ini[fields[0]] = io.Atof(fields[1])
	}
	return
}

// SetInitial seeds the state vector from named initial conditions; unknowns
// absent from the map keep their current value
func (o *Base) SetInitial(v []float64, ini map[string]float64) {
	for i, name := range o.Vnames {
		if val, ok := ini[name+"_0"]; ok {
			v[i] = val
		}
	}
}
