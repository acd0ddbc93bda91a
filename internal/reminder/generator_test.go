package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	thresholds := Thresholds{First: 7, Second: 15, Final: 30}

	tests := []struct {
		days     int
		expected Tier
		ok       bool
	}{
		{0, "", false},
		{6, "", false},
		{7, TierFirst, true}, // inclusive boundary
		{10, TierFirst, true},
		{14, TierFirst, true},
		{15, TierSecond, true},
		{29, TierSecond, true},
		{30, TierFinal, true},
		{365, TierFinal, true},
	}

	for _, tc := range tests {
		tier, ok := Classify(tc.days, thresholds)
		assert.Equal(t, tc.ok, ok, "days=%d", tc.days)
		assert.Equal(t, tc.expected, tier, "days=%d", tc.days)
	}
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, Thresholds{First: 7, Second: 15, Final: 30}.Validate())
	assert.ErrorIs(t, Thresholds{First: 0, Second: 15, Final: 30}.Validate(), ErrInvalidThresholds)
	assert.ErrorIs(t, Thresholds{First: 7, Second: 7, Final: 30}.Validate(), ErrInvalidThresholds)
	assert.ErrorIs(t, Thresholds{First: 7, Second: 15, Final: 15}.Validate(), ErrInvalidThresholds)
}

func TestRender(t *testing.T) {
	in := Input{
		StudentName:  "Aisha Nakato",
		GuardianName: "Mrs. Nakato",
		FeeHead:      "Tuition",
		Term:         "Term 2 2024",
		Outstanding:  "UGX 150,000",
		OverdueDays:  10,
		SchoolName:   "Hillside Primary",
	}

	msg, err := Render(TierFirst, in)
	require.NoError(t, err)
	assert.Contains(t, msg, "Aisha Nakato")
	assert.Contains(t, msg, "UGX 150,000")
	assert.Contains(t, msg, "10 days past due")

	msg, err = Render(TierFinal, in)
	require.NoError(t, err)
	assert.Contains(t, msg, "FINAL NOTICE")

	_, err = Render(Tier("fourth"), in)
	assert.ErrorIs(t, err, ErrUnknownTier)
}
