package FSI2D

import (
	"fmt"
	"log"
	"time"

	"github.com/notargets/gofsi/InputParameters"
	"github.com/notargets/gofsi/coupling"
	"github.com/notargets/gofsi/fespace"
	"github.com/notargets/gofsi/mesh"
	"github.com/notargets/gofsi/output"
	"github.com/notargets/gofsi/output/store"
	"github.com/notargets/gofsi/partition"
	"github.com/notargets/gofsi/physics"
	"github.com/notargets/gofsi/solver"
	"github.com/notargets/gofsi/utils"
	"github.com/notargets/gofsi/weakform"
)

type Options struct {
	VTKDir       string // Write .vtu/.pvd files here when set
	DBFile       string // Record the run in this SQLite file when set
	LinearSolver solver.LinearSolver
	Quiet        bool
}

/*
FSI is a solid disc held in a channel flow on one Cartesian background mesh.
The cells whose center lies inside the disc form the solid, the rest the
fluid. The unknowns are the displacement u and the velocity v at every parent
vertex, so both regions share the interface vertices.
*/
type FSI struct {
	Input     *InputParameters.InputParametersFSI
	Params    physics.Params
	Mesh      *mesh.Mesh
	Split     *partition.Split
	Interface *coupling.Interface
	Measures  *coupling.RegionMeasures
	BC        fespace.BCSpec
	// Combined transient problem over the parent mesh
	Space    *fespace.MultiSpace
	Operator *weakform.Operator
	// Linear steady problem over the fluid sub-mesh
	BootstrapSpace    *fespace.MultiSpace
	BootstrapOperator *weakform.Operator
	Trajectory        output.Trajectory
	opts              Options
}

func NewFSI(ip *InputParameters.InputParametersFSI, opts Options) (c *FSI, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	c = &FSI{
		Input: ip,
		opts:  opts,
	}
	if c.Params, err = ip.Params(); err != nil {
		return nil, err
	}
	if c.Mesh, err = mesh.NewCartesianMesh(ip.Domain, ip.Nm, ip.Nm); err != nil {
		return nil, err
	}
	disc := partition.CellCenterInCircle{Center: ip.Center, Radius: ip.Radius}
	if c.Split, err = partition.Partition(c.Mesh, disc, ip.ParallelDegree); err != nil {
		return nil, err
	}
	if c.Interface, err = coupling.ExtractInterface(c.Split.Fluid); err != nil {
		return nil, err
	}
	if c.Measures, err = coupling.NewRegionMeasures(c.Mesh, c.Split, c.Interface); err != nil {
		return nil, err
	}
	c.BC = c.boundaryConditions()
	if err = c.buildTransient(); err != nil {
		return nil, fmt.Errorf("coupled problem: %w", err)
	}
	if err = c.buildBootstrap(); err != nil {
		return nil, fmt.Errorf("bootstrap problem: %w", err)
	}
	if !opts.Quiet {
		c.PrintStatistics()
	}
	return
}

/*
boundaryConditions clamps the displacement on the whole outer boundary, drives
the inflow on the left wall and holds the velocity at zero on the top and
bottom walls. The right wall is a free outflow for the velocity.
*/
func (c *FSI) boundaryConditions() (bc fespace.BCSpec) {
	var (
		ip     = c.Input
		inflow = Ramp{U: ip.InflowVelocity, RampTime: ip.RampTime, YMin: ip.Domain[2], YMax: ip.Domain[3]}
	)
	bc.U = bc.U.With(coupling.BoundaryTag, Zero{})
	bc.V = bc.V.With("left", inflow).With("bottom", Zero{}).With("top", Zero{})
	return
}

func (c *FSI) buildTransient() (err error) {
	var (
		ip     = c.Input
		rm     = c.Measures
		parent = *c.Mesh
	)
	parent.Labels = c.Interface.ParentLabeling
	if c.Space, err = fespace.Build(&parent, c.BC); err != nil {
		return
	}
	var (
		fluid = weakform.CellDomain(c.Split.OutCellToCell(), rm.Fluid, ip.Order)
		solid = weakform.CellDomain(c.Split.InCellToCell(), rm.Solid, ip.Order)
		iface = weakform.FacetDomain(c.Interface.ParentAdjacent(), rm.Interface, ip.Order)
		terms = c.Params.FluidTerms(fluid, coupling.Mean(rm.Fluid))
	)
	terms = append(terms, c.Params.SolidTerm(solid), c.Params.InterfaceTerm(iface))
	c.Operator, err = weakform.BuildOperator(c.Space, terms,
		weakform.Options{Transient: true, ParallelDegree: ip.ParallelDegree})
	return
}

func (c *FSI) buildBootstrap() (err error) {
	var (
		ip    = c.Input
		fluid = c.Split.Fluid.WithLabels(c.Interface.Labeling)
		cells = make([]int, fluid.NumCells())
	)
	for i := range cells {
		cells[i] = i
	}
	if c.BootstrapSpace, err = fespace.BuildBootstrap(fluid.Mesh, c.BC, coupling.InterfaceTag, ip.T0); err != nil {
		return
	}
	d := weakform.CellDomain(cells, c.Measures.Fluid, ip.Order)
	c.BootstrapOperator, err = weakform.BuildOperator(c.BootstrapSpace,
		c.Params.BootstrapTerms(d, coupling.Mean(c.Measures.Fluid)),
		weakform.Options{ParallelDegree: ip.ParallelDegree})
	return
}

/*
Bootstrap solves the steady linear fluid problem at T0 with the interface held
at rest, and carries the result over to the combined space. Vertices owned by
the solid alone start from zero, constrained unknowns from their values at T0.
*/
func (c *FSI) Bootstrap() (x0 []float64, err error) {
	var xf []float64
	if xf, err = solver.SolveLinear(c.BootstrapOperator, c.Input.T0, c.opts.LinearSolver); err != nil {
		return
	}
	return c.Space.Interpolate(c.BootstrapSpace, xf, c.Split.Fluid.VertexToParent, c.Input.T0)
}

// Run bootstraps the initial state and integrates to Tf, every accepted state goes to the writers
func (c *FSI) Run() (final solver.State, err error) {
	var (
		ip      = c.Input
		start   = time.Now()
		writers = []output.Writer{&c.Trajectory}
		x0      []float64
	)
	if c.opts.VTKDir != "" {
		var vw *output.VTKWriter
		if vw, err = output.NewVTKWriter(c.opts.VTKDir, "fsi", c.Space, c.regionFlags()); err != nil {
			return
		}
		defer func() {
			if cerr := vw.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		writers = append(writers, vw)
	}
	if c.opts.DBFile != "" {
		var st *store.Store
		if st, err = c.openStore(); err != nil {
			return
		}
		defer st.Close()
		writers = append(writers, st)
	}
	w := output.Tee(writers...)

	if x0, err = c.Bootstrap(); err != nil {
		return
	}
	final = solver.State{Time: ip.T0, X: x0}
	if err = w.Append(final.Snapshot()); err != nil {
		return final, fmt.Errorf("writing snapshot at t = %g: %w", ip.T0, err)
	}
	if !c.opts.Quiet {
		fmt.Printf("Bootstrap solved, %d fluid dofs, elapsed = %v\n",
			c.BootstrapSpace.NumDofs(), time.Since(start).Round(time.Millisecond))
	}
	tm := &solver.ThetaMethod{
		Theta:  ip.Theta,
		T0:     ip.T0,
		Tf:     ip.Tf,
		Dt:     ip.Dt,
		Newton: solver.NewNewton(ip.FTol, ip.MaxIterations, c.opts.LinearSolver),
		Quiet:  c.opts.Quiet,
	}
	if final, err = tm.Run(c.Operator, c.Space, x0, w); err != nil {
		return
	}
	if !c.opts.Quiet {
		fmt.Printf("Finished %d steps at t = %8.5f, elapsed = %v\n%s\n",
			final.Step, final.Time, time.Since(start).Round(time.Millisecond), utils.GetMemUsage())
	}
	return
}

func (c *FSI) openStore() (st *store.Store, err error) {
	var params string
	if params, err = c.Input.Marshal(); err != nil {
		return
	}
	if st, err = store.Open(c.opts.DBFile); err != nil {
		return
	}
	if _, err = st.BeginRun(c.Input.Title, c.Space.NumDofs(), params); err != nil {
		st.Close()
		return nil, err
	}
	return
}

func (c *FSI) regionFlags() (flags []int) {
	flags = make([]int, len(c.Split.Mask))
	for i, solid := range c.Split.Mask {
		if solid {
			flags[i] = 1
		}
	}
	return
}

func (c *FSI) PrintStatistics() {
	c.Mesh.PrintStatistics()
	c.Split.PrintStatistics()
	log.Printf("Interface: %d edges, %d vertices, entity %d",
		c.Interface.NumEdges(), len(c.Interface.Facets[0]), c.Interface.Entity)
	c.Params.Print()
	c.Operator.PrintStatistics("coupled")
	c.BootstrapOperator.PrintStatistics("bootstrap")
}
