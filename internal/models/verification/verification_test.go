package verification_test

import (
	"testing"
	"time"

	"farmTracker/internal/models/cow"
	"farmTracker/internal/models/verification"

	"github.com/stretchr/testify/assert"
)

func TestPending_Expiry(t *testing.T) {
	created := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	hold := &verification.Pending{CreatedAt: created, ExpiresAt: created.Add(30 * time.Minute)}

	tests := []struct {
		name        string
		now         time.Time
		wantExpired bool
		wantMinutes int
	}{
		{name: "just created", now: created, wantMinutes: 30},
		{name: "rounds down", now: created.Add(10*time.Minute + 30*time.Second), wantMinutes: 19},
		{name: "last seconds", now: created.Add(29*time.Minute + 59*time.Second), wantMinutes: 0},
		{name: "exactly at expiry", now: created.Add(30 * time.Minute), wantMinutes: 0},
		{name: "after expiry", now: created.Add(31 * time.Minute), wantExpired: true, wantMinutes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExpired, hold.Expired(tt.now))
			assert.Equal(t, tt.wantMinutes, hold.MinutesRemaining(tt.now))
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []cow.Record{
		{verification.KeyBirthDate: "20210304", verification.KeySex: ""},
		{verification.KeySex: "암", verification.KeyFarmName: "행복농장"},
		{verification.KeyFarmName: "다른농장", verification.KeyBreed: "한우"},
	}

	summary := verification.Summarize("002012345678", records)

	assert.Equal(t, verification.Summary{
		EarTagNumber: "002012345678",
		BirthDate:    "20210304",
		Sex:          "암",
		Breed:        "한우",
		FarmName:     "행복농장",
		RecordCount:  3,
	}, summary)
}

func TestSummarize_NoRecords(t *testing.T) {
	summary := verification.Summarize("002012345678", nil)

	assert.Equal(t, "002012345678", summary.EarTagNumber)
	assert.Zero(t, summary.RecordCount)
	assert.Empty(t, summary.BirthDate)
}

func TestPending_Clone(t *testing.T) {
	hold := &verification.Pending{ID: "ver-1", Records: []cow.Record{{"sexNm": "암"}}}

	clone := hold.Clone()
	clone.Records[0]["sexNm"] = "수"

	assert.Equal(t, "암", hold.Records[0]["sexNm"])
}
