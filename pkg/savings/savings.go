package savings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target of a board. 0 <= CurrentAmount <= TargetAmount always holds.
type Goal struct {
	Id            string
	BoardId       string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	CreatedAt     time.Time
}

func (g Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}

func (g Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// clamp applies delta to the current amount, bounded by zero and the target.
func (g Goal) clamp(delta decimal.Decimal) decimal.Decimal {
	return decimal.Min(g.TargetAmount, decimal.Max(decimal.Zero, g.CurrentAmount.Add(delta)))
}
