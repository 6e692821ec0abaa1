package world

// Policy says what happens to a dependent field when the field it depends on
// is regenerated.
type Policy uint8

const (
	// ClearAndRecompute empties the dependent and runs its stage again.
	ClearAndRecompute Policy = iota
	// ClearOnly empties the dependent and leaves it empty.
	ClearOnly
)

func (p Policy) String() string {
	if p == ClearOnly {
		return "clear-only"
	}
	return "clear-and-recompute"
}

// Edge links a regenerated field to one of its dependents.
type Edge struct {
	Field  Field
	Policy Policy
}

// Graph declares, per world field, which other fields are invalidated when it
// is regenerated. The regenerated field itself is always cleared and re-run.
type Graph struct {
	edges map[Field][]Edge
}

// DefaultGraph reproduces the invalidation rules of the world-building
// review screen. Population reads every earlier field; regenerating powers
// clears it without recomputing it.
func DefaultGraph() *Graph {
	return &Graph{edges: map[Field][]Edge{
		WorldType: {
			{Regions, ClearAndRecompute},
			{Powers, ClearAndRecompute},
			{Resources, ClearAndRecompute},
			{Population, ClearAndRecompute},
			{PowerSystem, ClearAndRecompute},
		},
		Regions: {
			{Powers, ClearAndRecompute},
			{Population, ClearAndRecompute},
		},
		Powers: {
			{Population, ClearOnly},
		},
		Resources: {
			{Population, ClearAndRecompute},
		},
		Population:  nil,
		PowerSystem: nil,
	}}
}

// SetPolicy changes the policy of the edge field → dependent, adding the edge
// if it does not exist.
func (g *Graph) SetPolicy(field, dependent Field, p Policy) {
	for i, e := range g.edges[field] {
		if e.Field == dependent {
			g.edges[field][i].Policy = p
			return
		}
	}
	g.edges[field] = append(g.edges[field], Edge{Field: dependent, Policy: p})
}

// Plan returns the fields to clear and the stages to re-run, both in
// generation order, when f is regenerated.
func (g *Graph) Plan(f Field) (cleared, rerun []Field, err error) {
	edges, ok := g.edges[f]
	if !ok {
		return nil, nil, ErrUnknownField
	}

	clearSet := map[Field]bool{f: true}
	rerunSet := map[Field]bool{f: true}
	for _, e := range edges {
		clearSet[e.Field] = true
		if e.Policy == ClearAndRecompute {
			rerunSet[e.Field] = true
		}
	}

	for _, wf := range WorldFields {
		if clearSet[wf] {
			cleared = append(cleared, wf)
		}
		if rerunSet[wf] {
			rerun = append(rerun, wf)
		}
	}
	return cleared, rerun, nil
}
