package allocation

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func due(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func planTotal(p Plan) int64 {
	total := int64(0)
	for _, e := range p.Entries {
		total += e.Amount
	}
	return total
}

func TestAllocate_OldestFirst(t *testing.T) {
	obs := []Obligation{
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 30000},
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 50000},
	}

	plan, err := Allocate(60000, obs, OldestFirst, nil)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, snowflake.ID(1), plan.Entries[0].StructureID)
	assert.Equal(t, int64(50000), plan.Entries[0].Amount)
	assert.Equal(t, snowflake.ID(2), plan.Entries[1].StructureID)
	assert.Equal(t, int64(10000), plan.Entries[1].Amount)
	assert.Equal(t, int64(0), plan.Unallocated)
}

func TestAllocate_HighestAmountFirst(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 20000},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 70000},
	}

	plan, err := Allocate(75000, obs, HighestAmountFirst, nil)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, snowflake.ID(2), plan.Entries[0].StructureID)
	assert.Equal(t, int64(70000), plan.Entries[0].Amount)
	assert.Equal(t, int64(5000), plan.Entries[1].Amount)
}

func TestAllocate_EqualDistribution(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 8000},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 8000},
	}

	plan, err := Allocate(10000, obs, EqualDistribution, nil)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, int64(5000), plan.Entries[0].Amount)
	assert.Equal(t, int64(5000), plan.Entries[1].Amount)
	assert.Equal(t, int64(0), plan.Unallocated)
}

func TestAllocate_EqualDistributionLeftoverUnitsGoOldestFirst(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 100},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 100},
		{StructureID: 3, DueDate: due(2024, time.March, 1), Outstanding: 100},
	}

	plan, err := Allocate(100, obs, EqualDistribution, nil)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 3)
	assert.Equal(t, int64(34), plan.Entries[0].Amount)
	assert.Equal(t, int64(33), plan.Entries[1].Amount)
	assert.Equal(t, int64(33), plan.Entries[2].Amount)
}

func TestAllocate_EqualDistributionClippedSurplusReapplied(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 1000},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 9000},
	}

	plan, err := Allocate(8000, obs, EqualDistribution, nil)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, int64(1000), plan.Entries[0].Amount)
	assert.Equal(t, int64(7000), plan.Entries[1].Amount)
	assert.Equal(t, int64(0), plan.Unallocated)
}

func TestAllocate_RemainderSurfacedNeverDropped(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 3000},
	}

	for _, strategy := range []Strategy{OldestFirst, HighestAmountFirst, EqualDistribution} {
		plan, err := Allocate(5000, obs, strategy, nil)
		require.NoError(t, err, string(strategy))
		assert.Equal(t, int64(3000), planTotal(plan), string(strategy))
		assert.Equal(t, int64(2000), plan.Unallocated, string(strategy))
	}
}

func TestAllocate_SumNeverExceedsPayment(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 7919},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 6311},
		{StructureID: 3, DueDate: due(2024, time.March, 1), Outstanding: 104729},
	}

	for _, amount := range []int64{1, 99, 6311, 14230, 118959, 200000} {
		for _, strategy := range []Strategy{OldestFirst, HighestAmountFirst, EqualDistribution} {
			plan, err := Allocate(amount, obs, strategy, nil)
			require.NoError(t, err)
			assert.LessOrEqual(t, planTotal(plan), amount)
			assert.Equal(t, amount, planTotal(plan)+plan.Unallocated)
		}
	}
}

func TestAllocate_Manual(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 5000},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 5000},
	}

	plan, err := Allocate(6000, obs, Manual, map[snowflake.ID]int64{
		1: 7000, // clipped to outstanding
		2: 2000,
	})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, int64(5000), plan.Entries[0].Amount)
	assert.Equal(t, int64(1000), plan.Entries[1].Amount) // clipped by remaining payment
	assert.Equal(t, int64(0), plan.Unallocated)
}

func TestAllocate_ManualErrors(t *testing.T) {
	obs := []Obligation{{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 5000}}

	_, err := Allocate(1000, obs, Manual, map[snowflake.ID]int64{1: -5})
	assert.ErrorIs(t, err, ErrNegativeManualLine)

	_, err = Allocate(1000, obs, Manual, map[snowflake.ID]int64{9: 100})
	assert.ErrorIs(t, err, ErrUnknownStructure)
}

func TestAllocate_InvalidInput(t *testing.T) {
	_, err := Allocate(0, nil, OldestFirst, nil)
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = Allocate(100, nil, Strategy("round_robin"), nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestAllocate_SettledObligationsSkipped(t *testing.T) {
	obs := []Obligation{
		{StructureID: 1, DueDate: due(2024, time.January, 1), Outstanding: 0},
		{StructureID: 2, DueDate: due(2024, time.February, 1), Outstanding: 4000},
	}

	plan, err := Allocate(4000, obs, OldestFirst, nil)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, snowflake.ID(2), plan.Entries[0].StructureID)
}
