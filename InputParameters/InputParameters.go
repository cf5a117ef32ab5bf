package InputParameters

import (
	"fmt"
	"runtime"

	"github.com/ghodss/yaml"

	"github.com/notargets/gofsi/physics"
	"github.com/notargets/gofsi/types"
)

// Parameters obtained from the YAML input file
type InputParametersFSI struct {
	Title string `json:"Title"`
	// Materials
	Es   float64 `json:"Es"`   // Solid Young's modulus
	NuS  float64 `json:"NuS"`  // Solid Poisson ratio
	RhoS float64 `json:"RhoS"` // Solid density
	RhoF float64 `json:"RhoF"` // Fluid density
	MuF  float64 `json:"MuF"`  // Fluid viscosity
	Em   float64 `json:"Em"`   // Mesh motion Young's modulus
	NuM  float64 `json:"NuM"`  // Mesh motion Poisson ratio
	// Geometry
	Nm     int        `json:"Nm"`     // Cells per direction
	Domain [4]float64 `json:"Domain"` // xmin, xmax, ymin, ymax
	Radius float64    `json:"Radius"`
	Center [2]float64 `json:"Center"`
	// Time stepping and Newton
	T0            float64 `json:"T0"`
	Tf            float64 `json:"Tf"`
	Dt            float64 `json:"Dt"`
	Order         int     `json:"Order"` // Quadrature order
	FTol          float64 `json:"FTol"`
	MaxIterations int     `json:"MaxIterations"`
	Theta         float64 `json:"Theta"`
	// Coupling and forcing
	MeshStrategy   string  `json:"MeshStrategy"`
	Gamma          float64 `json:"Gamma"`
	InflowVelocity float64 `json:"InflowVelocity"`
	RampTime       float64 `json:"RampTime"`
	ParallelDegree int     `json:"ParallelDegree"`
}

func (ip *InputParametersFSI) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// SetDefaults fills every unset parameter that has a sensible default
func (ip *InputParametersFSI) SetDefaults() {
	if ip.Title == "" {
		ip.Title = "FSI"
	}
	if ip.Domain == [4]float64{} {
		ip.Domain = [4]float64{-1, 1, -1, 1}
	}
	if ip.Order == 0 {
		ip.Order = 4
	}
	if ip.FTol == 0 {
		ip.FTol = 1e-8
	}
	if ip.MaxIterations == 0 {
		ip.MaxIterations = 50
	}
	if ip.Theta == 0 {
		ip.Theta = 0.5
	}
	if ip.MeshStrategy == "" {
		ip.MeshStrategy = physics.LinearElasticity.String()
	}
	if ip.Gamma == 0 {
		ip.Gamma = 10
	}
	if ip.ParallelDegree == 0 {
		ip.ParallelDegree = runtime.NumCPU()
	}
}

// Validate checks the parameters before any mesh is built, the error names the offending parameter
func (ip *InputParametersFSI) Validate() (err error) {
	switch {
	case ip.Nm <= 0:
		return types.NewConfigError("Nm", ip.Nm, "mesh resolution must be positive")
	case !(ip.Domain[1] > ip.Domain[0]) || !(ip.Domain[3] > ip.Domain[2]):
		return types.NewConfigError("Domain", ip.Domain, "domain extents must be increasing")
	case ip.Radius < 0:
		return types.NewConfigError("Radius", ip.Radius, "must not be negative")
	case !(ip.Dt > 0):
		return types.NewConfigError("Dt", ip.Dt, "time step must be positive")
	case ip.Tf < ip.T0:
		return types.NewConfigError("Tf", ip.Tf, "final time is before T0 = %g", ip.T0)
	case ip.Order < 1:
		return types.NewConfigError("Order", ip.Order, "quadrature order must be at least 1")
	case !(ip.FTol > 0):
		return types.NewConfigError("FTol", ip.FTol, "must be positive")
	case ip.MaxIterations < 1:
		return types.NewConfigError("MaxIterations", ip.MaxIterations, "must be at least 1")
	case ip.Theta != 0.5:
		return types.NewConfigError("Theta", ip.Theta, "only the midpoint rule, Theta = 0.5, is available")
	case ip.RampTime < 0:
		return types.NewConfigError("RampTime", ip.RampTime, "must not be negative")
	case ip.ParallelDegree < 0:
		return types.NewConfigError("ParallelDegree", ip.ParallelDegree, "must not be negative")
	}
	if _, err = ip.Strategy(); err != nil {
		return
	}
	_, err = ip.Params()
	return
}

func (ip *InputParametersFSI) Strategy() (physics.MeshStrategy, error) {
	return physics.ParseMeshStrategy(ip.MeshStrategy)
}

// Params converts the material constants into kernel parameters
func (ip *InputParametersFSI) Params() (p physics.Params, err error) {
	var ms physics.MeshStrategy
	if ms, err = ip.Strategy(); err != nil {
		return
	}
	return physics.NewParams(ip.Es, ip.NuS, ip.RhoS, ip.RhoF, ip.MuF, ip.Em, ip.NuM, ip.Gamma, ms)
}

// Marshal renders the parameters as YAML, used to record a run
func (ip *InputParametersFSI) Marshal() (string, error) {
	data, err := yaml.Marshal(ip)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (ip *InputParametersFSI) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f, %8.5f, %8.5f\t= Solid Es, NuS, RhoS\n", ip.Es, ip.NuS, ip.RhoS)
	fmt.Printf("%8.5f, %8.5f\t\t= Fluid RhoF, MuF\n", ip.RhoF, ip.MuF)
	fmt.Printf("%8.5f, %8.5f\t\t= Mesh Em, NuM\n", ip.Em, ip.NuM)
	fmt.Printf("[%d]\t\t\t\t= Mesh Resolution\n", ip.Nm)
	fmt.Printf("%v\t\t= Domain\n", ip.Domain)
	fmt.Printf("%8.5f at %v\t= Solid Radius\n", ip.Radius, ip.Center)
	fmt.Printf("%8.5f, %8.5f, %8.5f\t= T0, Tf, Dt\n", ip.T0, ip.Tf, ip.Dt)
	fmt.Printf("[%d]\t\t\t\t= Quadrature Order\n", ip.Order)
	fmt.Printf("%8.2e, [%d]\t\t= Newton FTol, MaxIterations\n", ip.FTol, ip.MaxIterations)
	fmt.Printf("%8.5f\t\t= Theta\n", ip.Theta)
	fmt.Printf("[%s]\t= Mesh Strategy\n", ip.MeshStrategy)
	fmt.Printf("%8.5f\t\t= Interface Gamma\n", ip.Gamma)
	fmt.Printf("%8.5f, %8.5f\t\t= Inflow Velocity, Ramp Time\n", ip.InflowVelocity, ip.RampTime)
}
