package coupling

import (
	"fmt"

	"github.com/notargets/gofsi/mesh"
	"github.com/notargets/gofsi/types"
)

const (
	InterfaceTag = "interface"
	BoundaryTag  = "boundary"
)

/*
Interface is the set of facets shared by the fluid and solid regions, seen from
the fluid sub-mesh. Facets and ParentFacets hold, per dimension 0..D-1, the
fluid local and parent facet indices. Adjacent carries, for every interface
edge, the fluid cell on its side and the local edge number in that cell.
*/
type Interface struct {
	Entity         int
	Labeling       *mesh.Labeling // Fluid labeling carrying the interface tag
	ParentLabeling *mesh.Labeling // Parent labeling carrying the same tag
	Facets         [][]int
	ParentFacets   [][]int
	Adjacent       []types.CellFacet
	fluid          *mesh.SubMesh
}

func (iface *Interface) NumEdges() int { return len(iface.Facets[1]) }

// ParentAdjacent returns Adjacent expressed in parent cell indices
func (iface *Interface) ParentAdjacent() (cf []types.CellFacet) {
	cf = make([]types.CellFacet, len(iface.Adjacent))
	for i, a := range iface.Adjacent {
		cf[i] = types.CellFacet{Cell: iface.fluid.CellToParent[a.Cell], Local: a.Local}
	}
	return
}

/*
ExtractInterface finds the facets of the fluid sub-mesh that lie on its own
boundary but are not tagged as outer boundary, and the reverse, using the
symmetric difference of the two masks in every facet dimension. Those facets
get one entity id, registered under the "interface" tag. The id is the
existing interface entity when the tag is already present, otherwise one past
the largest entity in use. The input labelings are not modified.
*/
func ExtractInterface(fluid *mesh.SubMesh) (iface *Interface, err error) {
	if fluid == nil || fluid.Mesh == nil {
		return nil, fmt.Errorf("interface extraction requires a fluid sub-mesh")
	}
	var (
		labels = fluid.Labels
		D      = fluid.Dim()
	)
	if !labels.HasTag(BoundaryTag) {
		return nil, types.NewConfigError(BoundaryTag, nil, "fluid labeling has no outer boundary tag")
	}
	iface = &Interface{
		Facets:       make([][]int, D),
		ParentFacets: make([][]int, D),
		fluid:        fluid,
	}
	iface.Entity = interfaceEntity(labels)
	newLabels := labels
	for d := 0; d < D; d++ {
		var (
			onBoundary = fluid.IsBoundaryFacet(d)
			tagged     = labels.TagMask(d, BoundaryTag)
		)
		for f := range onBoundary {
			if onBoundary[f] != tagged[f] {
				iface.Facets[d] = append(iface.Facets[d], f)
				iface.ParentFacets[d] = append(iface.ParentFacets[d], fluid.FacetToParent[d][f])
			}
		}
		if newLabels, err = newLabels.Relabel(d, iface.Facets[d], iface.Entity); err != nil {
			return nil, err
		}
	}
	iface.Labeling = newLabels.WithTag(InterfaceTag, iface.Entity)

	iface.Adjacent = make([]types.CellFacet, len(iface.Facets[D-1]))
	for i, e := range iface.Facets[D-1] {
		c := fluid.EdgeToCells[e][0]
		iface.Adjacent[i] = types.CellFacet{Cell: c, Local: fluid.LocalEdge(c, e)}
	}

	if fluid.Parent != nil && fluid.Parent.Labels != nil {
		pl := fluid.Parent.Labels
		for d := 0; d < D; d++ {
			if pl, err = pl.Relabel(d, iface.ParentFacets[d], iface.Entity); err != nil {
				return nil, err
			}
		}
		iface.ParentLabeling = pl.WithTag(InterfaceTag, iface.Entity)
	}
	return
}

func interfaceEntity(l *mesh.Labeling) int {
	if ents, ok := l.TagEntities(InterfaceTag); ok && len(ents) > 0 {
		return ents[0]
	}
	return l.MaxEntity() + 1
}
