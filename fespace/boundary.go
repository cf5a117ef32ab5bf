package fespace

import (
	"fmt"

	"github.com/notargets/gofsi/mesh"
	"github.com/notargets/gofsi/types"
)

/*
BoundaryFunc prescribes a vector value on tagged boundary vertices. The time
derivative is supplied alongside the value, the assembler never
differentiates a boundary function itself.
*/
type BoundaryFunc interface {
	Value(x [2]float64, t float64) [2]float64
	TimeDerivative(x [2]float64, t float64) [2]float64
}

// Constant is a time independent boundary value
type Constant [2]float64

func (c Constant) Value([2]float64, float64) [2]float64          { return c }
func (c Constant) TimeDerivative([2]float64, float64) [2]float64 { return [2]float64{} }

// Funcs adapts a pair of plain functions to a BoundaryFunc
type Funcs struct {
	F, Dt func(x [2]float64, t float64) [2]float64
}

func (f Funcs) Value(x [2]float64, t float64) [2]float64 { return f.F(x, t) }

func (f Funcs) TimeDerivative(x [2]float64, t float64) [2]float64 {
	if f.Dt == nil {
		return [2]float64{}
	}
	return f.Dt(x, t)
}

type frozen struct {
	f  BoundaryFunc
	t0 float64
}

// Frozen evaluates f at t0 for every time, its derivative is zero
func Frozen(f BoundaryFunc, t0 float64) BoundaryFunc { return frozen{f: f, t0: t0} }

func (fr frozen) Value(x [2]float64, _ float64) [2]float64          { return fr.f.Value(x, fr.t0) }
func (fr frozen) TimeDerivative([2]float64, float64) [2]float64 { return [2]float64{} }

// FieldBC binds Dirichlet tags to values for one field, the first tag listed wins on shared vertices
type FieldBC struct {
	Tags   []string
	Values []BoundaryFunc
}

// Frozen returns a copy with every value frozen at t0
func (fb FieldBC) Frozen(t0 float64) (c FieldBC) {
	c.Tags = append([]string(nil), fb.Tags...)
	c.Values = make([]BoundaryFunc, len(fb.Values))
	for i, f := range fb.Values {
		c.Values[i] = Frozen(f, t0)
	}
	return
}

// With returns a copy with one more tag appended
func (fb FieldBC) With(tag string, f BoundaryFunc) (c FieldBC) {
	c.Tags = append(append([]string(nil), fb.Tags...), tag)
	c.Values = append(append([]BoundaryFunc(nil), fb.Values...), f)
	return
}

func (fb FieldBC) validate(field string, labels *mesh.Labeling) error {
	if len(fb.Tags) != len(fb.Values) {
		return types.NewConfigError(field, len(fb.Values),
			"%d Dirichlet tags but %d values", len(fb.Tags), len(fb.Values))
	}
	for i, tag := range fb.Tags {
		if !labels.HasTag(tag) {
			return types.NewConfigError(field+"."+tag, nil, "tag is not present in the mesh labeling")
		}
		if fb.Values[i] == nil {
			return types.NewConfigError(field+"."+tag, nil, "missing boundary value function")
		}
	}
	return nil
}

// BCSpec holds the Dirichlet bindings of the displacement and velocity fields
type BCSpec struct {
	U, V FieldBC
}

// Validate checks the bindings against a labeling before anything is assembled
func (bc BCSpec) Validate(labels *mesh.Labeling) error {
	if labels == nil {
		return fmt.Errorf("boundary conditions need a labeling")
	}
	if err := bc.U.validate("u", labels); err != nil {
		return err
	}
	return bc.V.validate("v", labels)
}

// Frozen returns the bindings evaluated once at t0
func (bc BCSpec) Frozen(t0 float64) BCSpec {
	return BCSpec{U: bc.U.Frozen(t0), V: bc.V.Frozen(t0)}
}
