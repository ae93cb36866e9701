package proxy

import (
	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// FullIndex identifies one super cell of the table by its four super
// members.
type FullIndex struct {
	I *mrio.Sector
	R *mrio.Region
	J *mrio.Sector
	S *mrio.Region
}

// Application assigns proxy axes to flow positions. A nil axis leaves
// that flow position unconstrained.
type Application struct {
	I *Axis
	R *Axis
	J *Axis
	S *Axis
}

// AppliesTo reports whether the application matches the split pattern of
// a super cell: every assigned axis must be sub-typed exactly when the
// corresponding member has been split.
func (a *Application) AppliesTo(i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) bool {
	return (a.I == nil || a.I.Sub == i.HasSub()) &&
		(a.R == nil || a.R.Sub == r.HasSub()) &&
		(a.J == nil || a.J.Sub == j.HasSub()) &&
		(a.S == nil || a.S.Sub == s.HasSub())
}

// FlowNumerator returns the previous-iteration flow over the narrower
// aggregation the application directly targets: sub-typed axes widen the
// leaf to its parent, everything else stays at the leaf.
func (a *Application) FlowNumerator(t *mrio.Table, i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) float64 {
	ie, re, je, se := i, r, j, s
	if a.I != nil && a.I.Sub {
		ie = i.Parent()
	}
	if a.R != nil && a.R.Sub {
		re = r.Parent()
	}
	if a.J != nil && a.J.Sub {
		je = j.Parent()
	}
	if a.S != nil && a.S.Sub {
		se = s.Parent()
	}
	return t.Sum(ie, re, je, se)
}

// FlowDenominator returns the previous-iteration flow over exactly the
// aggregation width the application redistributes: assigned axes widen
// to the leaf's super, unassigned axes become full wildcards.
func (a *Application) FlowDenominator(t *mrio.Table, i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) float64 {
	var id, jd *mrio.Sector
	var rd, sd *mrio.Region
	if a.I != nil {
		id = i.Super()
	}
	if a.R != nil {
		rd = r.Super()
	}
	if a.J != nil {
		jd = j.Super()
	}
	if a.S != nil {
		sd = s.Super()
	}
	return t.Sum(id, rd, jd, sd)
}

// Combine merges two applications by set-union of their assignments. An
// axis assigned differently by both is a configuration error.
func Combine(a1, a2 *Application) (*Application, error) {
	pick := func(x, y *Axis) (*Axis, error) {
		switch {
		case x == y:
			return x, nil
		case x == nil:
			return y, nil
		case y == nil:
			return x, nil
		default:
			return nil, errors.ErrConflictingApps
		}
	}
	var c Application
	var err error
	if c.I, err = pick(a1.I, a2.I); err != nil {
		return nil, err
	}
	if c.R, err = pick(a1.R, a2.R); err != nil {
		return nil, err
	}
	if c.J, err = pick(a1.J, a2.J); err != nil {
		return nil, err
	}
	if c.S, err = pick(a1.S, a2.S); err != nil {
		return nil, err
	}
	return &c, nil
}
