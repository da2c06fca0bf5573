package osm

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// ExtentAggregator collects the bounding box of all nodes it receives.
type ExtentAggregator struct {
	Bound    orb.Bound
	hasNodes bool
}

func NewExtentAggregator() *ExtentAggregator {
	return &ExtentAggregator{}
}

func (a *ExtentAggregator) Name() string {
	return "ExtentAggregator"
}

func (a *ExtentAggregator) Init() error {
	a.Bound = orb.Bound{}
	a.hasNodes = false
	return nil
}

func (a *ExtentAggregator) HandleNode(node *osm.Node) error {
	point := node.Point()
	if !a.hasNodes {
		a.Bound = point.Bound()
		a.hasNodes = true
	} else {
		a.Bound = a.Bound.Extend(point)
	}
	return nil
}

func (a *ExtentAggregator) Done() error {
	return nil
}

// HasNodes returns true when at least one node has been aggregated.
func (a *ExtentAggregator) HasNodes() bool {
	return a.hasNodes
}
