package physics

import (
	"math"

	"github.com/notargets/gofsi/fespace"
	"github.com/notargets/gofsi/weakform"
)

const (
	fu = fespace.FieldU
	fv = fespace.FieldV
)

/*
stiffening scales the mesh motion operator so that small cells resist
deformation more than large ones, kappa = mean cell measure / cell measure.
*/
func stiffening(meanMeasure float64, s *weakform.State) float64 {
	if !(s.Weight > 0) || !(meanMeasure > 0) {
		return 1
	}
	return meanMeasure / s.Weight
}

// sigma is the mesh motion flux for a displacement gradient G
func (p Params) sigma(G tensor) tensor {
	switch p.Strategy {
	case Laplacian:
		return G.scale(p.Mesh.Mu)
	default:
		eps := G.sym()
		return identity.scale(p.Mesh.Lambda * eps.trace()).add(eps.scale(2 * p.Mesh.Mu))
	}
}

// MeshMotionTerm moves the fluid displacement with the interface through the selected strategy
func (p Params) MeshMotionTerm(d *weakform.Domain, meanMeasure float64) weakform.Term {
	return weakform.Term{
		Name:   "mesh_motion_" + p.Strategy.String(),
		Domain: d,
		Residual: func(s *weakform.State, w weakform.Basis) float64 {
			return stiffening(meanMeasure, s) * p.sigma(s.GradU).ddot(w.Gradient(fu))
		},
		Jacobian: func(s *weakform.State, du, w weakform.Basis) float64 {
			return stiffening(meanMeasure, s) * p.sigma(du.Gradient(fu)).ddot(w.Gradient(fu))
		},
	}
}

/*
FluidTerm is the velocity equation of the fluid on the moving mesh, with the
convective velocity taken relative to the mesh velocity:
rho_f v_t.w + rho_f ((grad v)(v - u_t)).w + 2 mu_f eps(v):eps(w)
*/
func (p Params) FluidTerm(d *weakform.Domain) weakform.Term {
	var (
		rho, mu = p.Fluid.Rho, p.Fluid.Mu
	)
	return weakform.Term{
		Name:   "fluid",
		Domain: d,
		Residual: func(s *weakform.State, w weakform.Basis) float64 {
			var (
				wv    = w.Value(fv)
				gradV = tensor(s.GradV)
				conv  = gradV.vec(sub(s.V, s.Ut))
			)
			return rho*dot(s.Vt, wv) + rho*dot(conv, wv) +
				2*mu*gradV.sym().ddot(tensor(w.Gradient(fv)).sym())
		},
		Jacobian: func(s *weakform.State, du, w weakform.Basis) float64 {
			var (
				wv    = w.Value(fv)
				dv    = du.Value(fv)
				gradV = tensor(s.GradV)
				dGv   = tensor(du.Gradient(fv))
				conv  = add(dGv.vec(sub(s.V, s.Ut)), gradV.vec(dv))
			)
			return rho*dot(conv, wv) + 2*mu*dGv.sym().ddot(tensor(w.Gradient(fv)).sym())
		},
		JacobianT: func(s *weakform.State, du, w weakform.Basis) float64 {
			var (
				wv    = w.Value(fv)
				gradV = tensor(s.GradV)
			)
			return rho*dot(du.Value(fv), wv) - rho*dot(gradV.vec(du.Value(fu)), wv)
		},
	}
}

// pk1 is the first Piola-Kirchhoff stress of the St. Venant-Kirchhoff solid, P = F S
func (p Params) pk1(F tensor) (P, S tensor) {
	E := F.transpose().mul(F).add(identity.scale(-1)).scale(0.5)
	S = identity.scale(p.Solid.Lambda * E.trace()).add(E.scale(2 * p.Solid.Mu))
	P = F.mul(S)
	return
}

// dpk1 is the derivative of pk1 at F in the direction dF
func (p Params) dpk1(F, S, dF tensor) tensor {
	dE := dF.transpose().mul(F).add(F.transpose().mul(dF)).scale(0.5)
	dS := identity.scale(p.Solid.Lambda * dE.trace()).add(dE.scale(2 * p.Solid.Mu))
	return dF.mul(S).add(F.mul(dS))
}

/*
SolidTerm is the first order form of the hyperelastic solid:
rho_s v_t.w_v + P(F):grad w_v with F = I + grad u, and the kinematic
relation (u_t - v).w_u.
*/
func (p Params) SolidTerm(d *weakform.Domain) weakform.Term {
	rho := p.Solid.Rho
	return weakform.Term{
		Name:   "solid",
		Domain: d,
		Residual: func(s *weakform.State, w weakform.Basis) float64 {
			P, _ := p.pk1(identity.add(s.GradU))
			return rho*dot(s.Vt, w.Value(fv)) + P.ddot(w.Gradient(fv)) +
				dot(sub(s.Ut, s.V), w.Value(fu))
		},
		Jacobian: func(s *weakform.State, du, w weakform.Basis) float64 {
			F := identity.add(s.GradU)
			_, S := p.pk1(F)
			dP := p.dpk1(F, S, du.Gradient(fu))
			return dP.ddot(w.Gradient(fv)) - dot(du.Value(fv), w.Value(fu))
		},
		JacobianT: func(s *weakform.State, du, w weakform.Basis) float64 {
			return rho*dot(du.Value(fv), w.Value(fv)) + dot(du.Value(fu), w.Value(fu))
		},
	}
}

/*
InterfaceTerm weakly ties the fluid velocity to the velocity of the moving
interface, gamma mu_f / h (v - u_t).w_v, with h the square root of the measure
of the fluid cell next to the edge.
*/
func (p Params) InterfaceTerm(d *weakform.Domain) weakform.Term {
	penalty := func(s *weakform.State) float64 {
		h := 1.
		if s.Weight > 0 {
			h = math.Sqrt(s.Weight)
		}
		return p.Gamma * p.Fluid.Mu / h
	}
	return weakform.Term{
		Name:   "interface",
		Domain: d,
		Residual: func(s *weakform.State, w weakform.Basis) float64 {
			return penalty(s) * dot(sub(s.V, s.Ut), w.Value(fv))
		},
		Jacobian: func(s *weakform.State, du, w weakform.Basis) float64 {
			return penalty(s) * dot(du.Value(fv), w.Value(fv))
		},
		JacobianT: func(s *weakform.State, du, w weakform.Basis) float64 {
			return -penalty(s) * dot(du.Value(fu), w.Value(fv))
		},
	}
}

// StokesTerm is the steady viscous operator of the bootstrap problem, 2 mu_f eps(v):eps(w)
func (p Params) StokesTerm(d *weakform.Domain) weakform.Term {
	mu := p.Fluid.Mu
	return weakform.Term{
		Name:   "stokes",
		Domain: d,
		Residual: func(s *weakform.State, w weakform.Basis) float64 {
			return 2 * mu * tensor(s.GradV).sym().ddot(tensor(w.Gradient(fv)).sym())
		},
		Jacobian: func(s *weakform.State, du, w weakform.Basis) float64 {
			return 2 * mu * tensor(du.Gradient(fv)).sym().ddot(tensor(w.Gradient(fv)).sym())
		},
	}
}

// FluidTerms is the fluid region of the transient problem
func (p Params) FluidTerms(d *weakform.Domain, meanMeasure float64) []weakform.Term {
	return []weakform.Term{p.FluidTerm(d), p.MeshMotionTerm(d, meanMeasure)}
}

// BootstrapTerms is the linear steady problem solved on the fluid region before time stepping
func (p Params) BootstrapTerms(d *weakform.Domain, meanMeasure float64) []weakform.Term {
	return []weakform.Term{p.StokesTerm(d), p.MeshMotionTerm(d, meanMeasure)}
}
