package engine

import (
	"fmt"
	"strings"

	"github.com/nvandessel/lifesim/internal/bbox"
)

// Strategy chooses which cells the reducer visits each generation.
type Strategy interface {
	Name() string
	ScanRegion(t bbox.Tracker) bbox.Box
}

// FullScan visits every cell every generation. It is the baseline the
// bounding-box strategy is checked against.
type FullScan struct{}

func (FullScan) Name() string { return "full" }

func (FullScan) ScanRegion(t bbox.Tracker) bbox.Box { return bbox.Full(t.Size()) }

// BoundingBox visits only the tracked live box grown by one cell.
type BoundingBox struct{}

func (BoundingBox) Name() string { return "bbox" }

func (BoundingBox) ScanRegion(t bbox.Tracker) bbox.Box { return t.ScanRegion() }

// StrategyNames lists the accepted ParseStrategy inputs.
var StrategyNames = []string{"bbox", "full"}

// ParseStrategy maps a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "bbox", "bounding-box":
		return BoundingBox{}, nil
	case "full", "full-scan":
		return FullScan{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (valid: %s)", name, strings.Join(StrategyNames, ", "))
	}
}
