// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow0d

import (
	"github.com/cpmech/gosl/chk"
)

// ChamberState holds the symbolic state of one chamber after its coupling
// relation has been inserted into the unknown/coupling arrays
type ChamberState struct {
	V     Expr // chamber volume; nil when the balance is expressed via a flux
	Q     Expr // net chamber outflux; nil when the balance is expressed via dV/dt
	P     Expr // chamber pressure
	PDown Expr // downstream pressure (second interface, or equal to P)
}

// SetCouplingState inserts the correct algebraic relation for one chamber
// into the symbolic arrays and records the coupling layout. The chamber slot
// vindex receives the pressure unknown, except for pressure coupling where it
// receives the chamber outflux unknown (the pressure then enters through the
// coupling vector as a Lagrange multiplier). At most two interfaces per
// chamber are supported, and only with pressure coupling
func (o *Base) SetCouplingState(ch *Chamber, cq CoupQuantity, vu float64, vindex int, pname, qname string, E *Sym) (st ChamberState, err error) {

	switch ch.Model {

	// time-varying elastances: V = p/E(t) + V_u
	case Elast0D, PrescrElast:
		p := o.NewX(pname, vindex)
		st.P = p
		st.PDown = p
		st.V = Add(Div(p, E), Num(vu))
		return

	// continuum (FEM) chamber
	case Fem3D:
		nintf := ch.Nintf
		if nintf == 0 {
			nintf = 1
		}
		if nintf > 2 {
			return st, chk.Err("more than two continuum interfaces for chamber %s", ch.Name)
		}
		if nintf == 2 && cq != CqPressure {
			return st, chk.Err("chamber %s has more than 1 interface: cannot use volume or flux coupling", ch.Name)
		}
		switch cq {
		case CqVolume:
			p := o.NewX(pname, vindex)
			st.P = p
			st.PDown = p
			st.V = o.NewC("V_" + ch.Name)
			o.Vids = append(o.Vids, vindex)
			o.Cids = append(o.Cids, len(o.csym)-1)
			o.Cqs = append(o.Cqs, cq)
		case CqFlux:
			p := o.NewX(pname, vindex)
			st.P = p
			st.PDown = p
			st.Q = o.NewC(qname)
			o.Vids = append(o.Vids, vindex)
			o.Cids = append(o.Cids, len(o.csym)-1)
			o.Cqs = append(o.Cqs, cq)
		case CqPressure:
			q := o.NewX(qname, vindex)
			st.Q = q
			st.P = o.NewC(pname)
			st.PDown = st.P
			o.Vids = append(o.Vids, vindex)
			o.Cids = append(o.Cids, len(o.csym)-1)
			o.Cqs = append(o.Cqs, cq)
			if nintf == 2 {
				st.PDown = o.NewC(pname + "_d")
			}
		default:
			return st, chk.Err("unknown coupling quantity for chamber %s", ch.Name)
		}
		return
	}
	return st, chk.Err("unknown chamber model for chamber %s", ch.Name)
}

// balance returns the rate and algebraic parts of a chamber mass balance
//  dV/dt = q_in - q_out   or, in flux form,   Q + q_out - q_in = 0
func balance(st ChamberState, qin, qout Expr) (df, f Expr) {
	if st.V == nil {
		return Num(0), Add(st.Q, Sub(qout, qin))
	}
	return st.V, Sub(qout, qin)
}
