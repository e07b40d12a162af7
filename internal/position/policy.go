// internal/position/policy.go
package position

// Basis is the running cost basis of a position.
type Basis struct {
	Cost  float64
	Units float64
}

// AvgCost returns Cost/Units, or 0 when nothing is held.
func (b Basis) AvgCost() float64 {
	if b.Units <= 0 {
		return 0
	}
	return b.Cost / b.Units
}

// CostPolicy assigns a cost basis to disposed units.
type CostPolicy interface {
	Name() string
	// Acquire adds units bought for cost (fees included).
	Acquire(b *Basis, cost, units float64)
	// Dispose removes units and returns the cost basis they carried.
	Dispose(b *Basis, units float64) float64
}

// AverageCost values every unit at cumulative cost / cumulative units held.
// No lots are tracked, so the result depends only on chronological order.
type AverageCost struct{}

func (AverageCost) Name() string { return "average-cost" }

func (AverageCost) Acquire(b *Basis, cost, units float64) {
	b.Cost += cost
	b.Units += units
}

func (AverageCost) Dispose(b *Basis, units float64) float64 {
	if units <= 0 || b.Units <= 0 {
		return 0
	}
	if units >= b.Units {
		cost := b.Cost
		b.Cost = 0
		b.Units = 0
		return cost
	}
	cost := b.AvgCost() * units
	b.Cost -= cost
	b.Units -= units
	return cost
}
