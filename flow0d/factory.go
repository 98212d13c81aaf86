// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
)

// Config holds the model configuration derived from the input file
type Config struct {
	Theta    float64             // time-integration factor ]0;1]
	Chambers map[string]*Chamber // chamber configuration keyed by {lv, rv, la, ra}
	Cq       CoupQuantity        // coupling quantity for 3D chambers
	Curves   []fun.Func          // time curves consumed by the model (e.g. prescribed fluxes)
}

// allocators holds all available lumped models
var allocators = make(map[string]func() Model)

// New allocates and initialises a lumped model by name. Unknown names are a
// configuration error
func New(name string, cfg *Config, prms dbf.Params) (Model, error) {
	alloc, ok := allocators[name]
	if !ok {
		return nil, chk.Err("unknown lumped model %q", name)
	}
	m := alloc()
	if err := m.Init(cfg, prms); err != nil {
		return nil, err
	}
	return m, nil
}
