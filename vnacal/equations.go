// Package vnacal: the linear relations behind every error-term family.
//
// Each family relates a measured matrix M to the true S matrix through
// the per-frequency error terms:
//
//	T families:  M·(Tx·S + Tm) = Ts·S + Ti   (scalar diagonals for
//	             T8/TE10, full matrices for T16)
//	U families:  Um·M + Ui = S·(Ux·M + Us)   (scalar diagonals for
//	             U8/UE10, full matrices for U16, one independent
//	             system per driven column for UE14/E12)
//
// The solver linearizes these relations in the error terms (S held at
// its current estimate); the parameter update and the apply engine use
// the same relations linearized in S (terms held fixed). Leakage terms
// of the *E10/UE14/E12 families are subtracted from M before either
// form is built.

package vnacal

// termEq is one equation of the error-term system: coefficients over
// the flat term-index space plus a constant right-hand side. Free terms
// contribute their pinned unit value to the right-hand side instead of
// a coefficient.
type termEq struct {
	idx  []int
	coef []complex128
	rhs  complex128
}

func (e *termEq) add(term int, c complex128) {
	e.idx = append(e.idx, term)
	e.coef = append(e.coef, c)
}

// termEquation builds the error-term equation of measured cell (i, j)
// for one standard. lay is the working layout (UE14 stands in for E12),
// ports lists the standard's connected VNA ports ascending, mp is the
// leakage-corrected measurement and sv the standard's S values, both in
// VNA coordinates.
func termEquation(lay Layout, ports []int, mp, sv [][]complex128, i, j int) termEq {
	var eq termEq
	switch lay.typ {
	case T8, TE10:
		for _, k := range ports {
			eq.add(lay.txIdx(k), mp[i][k]*sv[k][j])
		}
		eq.add(lay.tmIdx(j), mp[i][j])
		eq.add(lay.tsIdx(i), -sv[i][j])
		if i == j {
			eq.add(lay.tiIdx(i), -1)
		}
	case U8, UE10:
		eq.add(lay.umIdx(i), mp[i][j])
		if i == j {
			eq.add(lay.uiIdx(j), 1)
		}
		for _, k := range ports {
			eq.add(lay.uxIdx(k), -sv[i][k]*mp[k][j])
		}
		eq.add(lay.usIdx(j), -sv[i][j])
	case T16:
		for _, k := range ports {
			for _, q := range ports {
				eq.add(lay.tx16Idx(k, q), mp[i][k]*sv[q][j])
			}
			eq.add(lay.tm16Idx(k, j), mp[i][k])
		}
		for _, q := range ports {
			eq.add(lay.ts16Idx(i, q), -sv[q][j])
		}
		eq.add(lay.ti16Idx(i, j), -1)
	case U16:
		for _, k := range ports {
			eq.add(lay.um16Idx(i, k), mp[k][j])
			for _, q := range ports {
				eq.add(lay.ux16Idx(q, k), -sv[i][q]*mp[k][j])
			}
		}
		for _, q := range ports {
			eq.add(lay.us16Idx(q, j), -sv[i][q])
		}
		eq.add(lay.ui16Idx(i, j), 1)
	case UE14:
		eq.add(lay.umColIdx(j, i), mp[i][j])
		if i == j {
			eq.add(lay.uiColIdx(j), 1)
		}
		for _, k := range ports {
			eq.add(lay.uxColIdx(j, k), -sv[i][k]*mp[k][j])
		}
		eq.add(lay.usColIdx(j), -sv[i][j])
	default:
		panic("vnacal: termEquation on unsupported layout " + lay.typ.String())
	}

	return eq
}

// sTerm is one coefficient of an S-cell equation, addressing the cell
// in VNA coordinates.
type sTerm struct {
	row, col int
	coef     complex128
}

// sEquation builds the equation of measured cell (i, j) linearized in
// the S cells, with the error terms tv held fixed. The same relation
// serves the solver's unknown-parameter update and the apply engine's
// correction system. For E12 the implicit unit us term is substituted.
func sEquation(lay Layout, tv []complex128, ports []int, mp [][]complex128, i, j int) ([]sTerm, complex128) {
	var (
		terms []sTerm
		rhs   complex128
	)
	switch lay.typ {
	case T8, TE10:
		for _, k := range ports {
			c := mp[i][k] * tv[lay.txIdx(k)]
			if k == i {
				c -= tv[lay.tsIdx(i)]
			}
			terms = append(terms, sTerm{k, j, c})
		}
		rhs = -mp[i][j] * tv[lay.tmIdx(j)]
		if i == j {
			rhs += tv[lay.tiIdx(i)]
		}
	case U8, UE10:
		for _, k := range ports {
			c := tv[lay.uxIdx(k)] * mp[k][j]
			if k == j {
				c += tv[lay.usIdx(j)]
			}
			terms = append(terms, sTerm{i, k, c})
		}
		rhs = tv[lay.umIdx(i)] * mp[i][j]
		if i == j {
			rhs += tv[lay.uiIdx(j)]
		}
	case T16:
		for _, q := range ports {
			var c complex128
			for _, k := range ports {
				c += mp[i][k] * tv[lay.tx16Idx(k, q)]
			}
			c -= tv[lay.ts16Idx(i, q)]
			terms = append(terms, sTerm{q, j, c})
		}
		rhs = tv[lay.ti16Idx(i, j)]
		for _, k := range ports {
			rhs -= mp[i][k] * tv[lay.tm16Idx(k, j)]
		}
	case U16:
		for _, q := range ports {
			c := tv[lay.us16Idx(q, j)]
			for _, k := range ports {
				c += tv[lay.ux16Idx(q, k)] * mp[k][j]
			}
			terms = append(terms, sTerm{i, q, c})
		}
		rhs = tv[lay.ui16Idx(i, j)]
		for _, k := range ports {
			rhs += tv[lay.um16Idx(i, k)] * mp[k][j]
		}
	case UE14, E12:
		us := complex(1, 0)
		if lay.typ == UE14 {
			us = tv[lay.usColIdx(j)]
		}
		for _, k := range ports {
			c := tv[lay.uxColIdx(j, k)] * mp[k][j]
			if k == j {
				c += us
			}
			terms = append(terms, sTerm{i, k, c})
		}
		rhs = tv[lay.umColIdx(j, i)] * mp[i][j]
		if i == j {
			rhs += tv[lay.uiColIdx(j)]
		}
	default:
		panic("vnacal: sEquation on unsupported layout " + lay.typ.String())
	}

	return terms, rhs
}
