package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlannedUpgradeTime(t *testing.T) {
	mondayMorning := time.Date(2023, 10, 23, 11, 0, 0, 0, time.UTC)
	mondayEvening := time.Date(2023, 10, 23, 20, 0, 0, 0, time.UTC)
	fridayMorning := time.Date(2023, 10, 27, 11, 0, 0, 0, time.UTC)
	testnetVoting := 12 * time.Hour
	mainnetVoting := 120 * time.Hour

	cases := []struct {
		name   string
		now    time.Time
		voting time.Duration
		want   time.Time
	}{
		{name: "monday morning testnet", now: mondayMorning, voting: testnetVoting, want: time.Date(2023, 10, 24, 16, 0, 0, 0, time.UTC)},
		{name: "monday morning mainnet skips saturday", now: mondayMorning, voting: mainnetVoting, want: time.Date(2023, 10, 30, 16, 0, 0, 0, time.UTC)},
		{name: "monday evening testnet", now: mondayEvening, voting: testnetVoting, want: time.Date(2023, 10, 25, 16, 0, 0, 0, time.UTC)},
		{name: "monday evening mainnet", now: mondayEvening, voting: mainnetVoting, want: time.Date(2023, 10, 30, 16, 0, 0, 0, time.UTC)},
		{name: "friday morning testnet", now: fridayMorning, voting: testnetVoting, want: time.Date(2023, 10, 30, 16, 0, 0, 0, time.UTC)},
		{name: "friday morning mainnet", now: fridayMorning, voting: mainnetVoting, want: time.Date(2023, 11, 1, 16, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlannedUpgradeTime(tc.voting, tc.now)
			assert.Equal(t, tc.want, got)
			assert.True(t, IsValidUpgradeTime(got))
		})
	}
}

func TestIsValidUpgradeTime(t *testing.T) {
	assert.True(t, IsValidUpgradeTime(time.Date(2023, 10, 23, 16, 0, 0, 0, time.UTC)))
	assert.False(t, IsValidUpgradeTime(time.Date(2023, 10, 28, 16, 0, 0, 0, time.UTC)))
	assert.False(t, IsValidUpgradeTime(time.Date(2023, 10, 29, 16, 0, 0, 0, time.UTC)))
}

func TestTimeString(t *testing.T) {
	assert.Equal(t, "4AM UTC on Mon., October 23., 2023", TimeString(time.Date(2023, 10, 23, 4, 0, 0, 0, time.UTC)))
	assert.Equal(t, "4PM UTC on Wed., February 1., 2023", TimeString(time.Date(2023, 2, 1, 16, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12AM UTC on Sun., January 1., 2023", TimeString(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "50,000", FormatNumber(50000))
	assert.Equal(t, "18,798,834", FormatNumber(18798834))
	assert.Equal(t, "500", FormatNumber(500))
}
