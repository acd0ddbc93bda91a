// Package allocation distributes a single payment amount across outstanding
// fee obligations. Everything here is pure and in-memory; persistence of the
// resulting plan belongs to the payment service.
package allocation

import (
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Strategy string

const (
	OldestFirst        Strategy = "oldest_first"
	HighestAmountFirst Strategy = "highest_amount_first"
	EqualDistribution  Strategy = "equal_distribution"
	Manual             Strategy = "manual"
)

// Obligation is the allocator's view of one outstanding fee.
type Obligation struct {
	StructureID snowflake.ID
	DueDate     time.Time
	Outstanding int64
}

// Entry is the amount the plan assigns to one obligation.
type Entry struct {
	StructureID snowflake.ID `json:"structure_id"`
	Amount      int64        `json:"amount"`
}

// Plan is the transient result handed back for confirmation. The invariant
// sum(Entries) + Unallocated == payment always holds; nothing is silently
// dropped or over-applied.
type Plan struct {
	Strategy    Strategy `json:"strategy"`
	Entries     []Entry  `json:"entries"`
	Unallocated int64    `json:"unallocated"`
}

var (
	ErrNonPositiveAmount  = errors.New("non_positive_amount")
	ErrUnknownStrategy    = errors.New("unknown_strategy")
	ErrNegativeManualLine = errors.New("negative_manual_line")
	ErrUnknownStructure   = errors.New("unknown_structure")
)

// Allocate splits amount across the obligations under the given strategy.
// Obligations with zero outstanding receive no entry. Manual lines are keyed
// by structure ID and clipped to each obligation's outstanding amount.
func Allocate(amount int64, obligations []Obligation, strategy Strategy, manual map[snowflake.ID]int64) (Plan, error) {
	if amount <= 0 {
		return Plan{}, ErrNonPositiveAmount
	}

	open := make([]Obligation, 0, len(obligations))
	for _, ob := range obligations {
		if ob.Outstanding > 0 {
			open = append(open, ob)
		}
	}

	switch strategy {
	case OldestFirst:
		sortByDueDate(open)
		return fillSequential(amount, open, strategy), nil
	case HighestAmountFirst:
		sort.SliceStable(open, func(i, j int) bool {
			return open[i].Outstanding > open[j].Outstanding
		})
		return fillSequential(amount, open, strategy), nil
	case EqualDistribution:
		return equalSplit(amount, open), nil
	case Manual:
		return manualPlan(amount, open, manual)
	default:
		return Plan{}, ErrUnknownStrategy
	}
}

func sortByDueDate(obs []Obligation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].DueDate.Before(obs[j].DueDate)
	})
}

func fillSequential(amount int64, ordered []Obligation, strategy Strategy) Plan {
	plan := Plan{Strategy: strategy}
	remaining := amount
	for _, ob := range ordered {
		if remaining == 0 {
			break
		}
		take := min(remaining, ob.Outstanding)
		plan.Entries = append(plan.Entries, Entry{StructureID: ob.StructureID, Amount: take})
		remaining -= take
	}
	plan.Unallocated = remaining
	return plan
}

// equalSplit divides the amount into equal whole-unit shares in due-date
// order. Leftover units from the floor division go one at a time to the
// earliest-due obligations; any share beyond an obligation's outstanding is
// re-applied oldest-first, and what still cannot be placed is returned as
// Unallocated.
func equalSplit(amount int64, obligations []Obligation) Plan {
	plan := Plan{Strategy: EqualDistribution}
	if len(obligations) == 0 {
		plan.Unallocated = amount
		return plan
	}

	ordered := make([]Obligation, len(obligations))
	copy(ordered, obligations)
	sortByDueDate(ordered)

	n := int64(len(ordered))
	share := amount / n
	leftover := amount - share*n

	allocated := make([]int64, len(ordered))
	overflow := int64(0)
	for i, ob := range ordered {
		want := share
		if int64(i) < leftover {
			want++
		}
		take := min(want, ob.Outstanding)
		allocated[i] = take
		overflow += want - take
	}

	// Clipped surplus flows back to whoever still has capacity, oldest first.
	for i, ob := range ordered {
		if overflow == 0 {
			break
		}
		capacity := ob.Outstanding - allocated[i]
		if capacity <= 0 {
			continue
		}
		take := min(overflow, capacity)
		allocated[i] += take
		overflow -= take
	}

	total := int64(0)
	for i, ob := range ordered {
		if allocated[i] == 0 {
			continue
		}
		plan.Entries = append(plan.Entries, Entry{StructureID: ob.StructureID, Amount: allocated[i]})
		total += allocated[i]
	}
	plan.Unallocated = amount - total
	return plan
}

func manualPlan(amount int64, obligations []Obligation, manual map[snowflake.ID]int64) (Plan, error) {
	plan := Plan{Strategy: Manual}

	byID := make(map[snowflake.ID]Obligation, len(obligations))
	for _, ob := range obligations {
		byID[ob.StructureID] = ob
	}
	for id, amt := range manual {
		if amt < 0 {
			return Plan{}, ErrNegativeManualLine
		}
		if _, ok := byID[id]; !ok && amt > 0 {
			return Plan{}, ErrUnknownStructure
		}
	}

	// Apply in due-date order so clipping against the remaining payment is
	// deterministic.
	ordered := make([]Obligation, len(obligations))
	copy(ordered, obligations)
	sortByDueDate(ordered)

	remaining := amount
	for _, ob := range ordered {
		want, ok := manual[ob.StructureID]
		if !ok || want == 0 {
			continue
		}
		take := min(min(want, ob.Outstanding), remaining)
		if take == 0 {
			continue
		}
		plan.Entries = append(plan.Entries, Entry{StructureID: ob.StructureID, Amount: take})
		remaining -= take
	}
	plan.Unallocated = remaining
	return plan, nil
}
