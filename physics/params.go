package physics

import (
	"fmt"
	"strings"

	"github.com/notargets/gofsi/types"
)

// Lame converts Young's modulus and Poisson's ratio to the Lamé parameters
func Lame(E, nu float64) (lambda, mu float64) {
	lambda = E * nu / ((1 + nu) * (1 - 2*nu))
	mu = E / (2 * (1 + nu))
	return
}

type Solid struct {
	Rho, Lambda, Mu float64
}

type Fluid struct {
	Rho, Mu float64
}

// Params carries the material constants captured by the kernels
type Params struct {
	Solid    Solid
	Fluid    Fluid
	Mesh     Solid // Rho unused, the mesh is a pseudo solid
	Gamma    float64
	Strategy MeshStrategy
}

func NewParams(Es, NuS, RhoS, RhoF, MuF, Em, NuM, gamma float64, strategy MeshStrategy) (p Params, err error) {
	check := func(name string, v float64) {
		if err == nil && !(v > 0) {
			err = types.NewConfigError(name, v, "must be positive")
		}
	}
	check("Es", Es)
	check("RhoS", RhoS)
	check("RhoF", RhoF)
	check("MuF", MuF)
	check("Em", Em)
	check("Gamma", gamma)
	for _, nu := range []struct {
		name string
		v    float64
	}{{"NuS", NuS}, {"NuM", NuM}} {
		if err == nil && !(nu.v > -1 && nu.v < 0.5) {
			err = types.NewConfigError(nu.name, nu.v, "Poisson ratio must be in (-1, 0.5)")
		}
	}
	if err != nil {
		return
	}
	p.Solid.Rho = RhoS
	p.Solid.Lambda, p.Solid.Mu = Lame(Es, NuS)
	p.Fluid = Fluid{Rho: RhoF, Mu: MuF}
	p.Mesh.Lambda, p.Mesh.Mu = Lame(Em, NuM)
	p.Gamma = gamma
	p.Strategy = strategy
	return
}

func (p Params) Print() {
	fmt.Printf("Solid: rho = %8.5f, lambda = %8.5f, mu = %8.5f\n", p.Solid.Rho, p.Solid.Lambda, p.Solid.Mu)
	fmt.Printf("Fluid: rho = %8.5f, mu = %8.5f\n", p.Fluid.Rho, p.Fluid.Mu)
	fmt.Printf("Mesh motion: %s, lambda = %8.5f, mu = %8.5f\n", p.Strategy, p.Mesh.Lambda, p.Mesh.Mu)
	fmt.Printf("Interface penalty: %8.5f\n", p.Gamma)
}

// MeshStrategy selects the operator that moves the fluid mesh with the solid
type MeshStrategy uint8

const (
	LinearElasticity MeshStrategy = iota
	Laplacian
)

var meshStrategyNames = map[string]MeshStrategy{
	"linearelasticity":  LinearElasticity,
	"linear_elasticity": LinearElasticity,
	"elasticity":        LinearElasticity,
	"laplacian":         Laplacian,
}

func (ms MeshStrategy) String() string {
	return [...]string{"LinearElasticity", "Laplacian"}[ms]
}

func ParseMeshStrategy(label string) (ms MeshStrategy, err error) {
	var ok bool
	if ms, ok = meshStrategyNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = types.NewConfigError("MeshStrategy", label, "must be one of LinearElasticity, Laplacian")
	}
	return
}
