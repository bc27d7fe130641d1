package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"exactly 18 years", date(2001, 3, 1), date(2019, 3, 1), 18},
		{"one day short of 18", date(2001, 3, 1), date(2019, 2, 28), 17},
		{"mid-life", date(1990, 1, 1), date(2019, 3, 1), 29},
		{"same day", date(2019, 3, 1), date(2019, 3, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.birth, tt.now))
		})
	}
}

func TestEvaluateEligibility_AgeWindow(t *testing.T) {
	now := date(2019, 3, 1)

	t.Run("eligible on 18th birthday", func(t *testing.T) {
		donor := &Donor{BirthDate: date(2001, 3, 1), Sex: "M"}
		result := EvaluateEligibility(donor, now)
		assert.Equal(t, Eligible, result.Status)
	})

	t.Run("too young one day before 18", func(t *testing.T) {
		donor := &Donor{BirthDate: date(2001, 3, 1), Sex: "M"}
		result := EvaluateEligibility(donor, date(2019, 2, 28))
		assert.Equal(t, TooYoung, result.Status)
	})

	t.Run("too old past 69", func(t *testing.T) {
		donor := &Donor{BirthDate: date(1940, 1, 1), Sex: "F"}
		result := EvaluateEligibility(donor, now)
		assert.Equal(t, TooOld, result.Status)
	})

	t.Run("age gate wins over cooling-off", func(t *testing.T) {
		donor := &Donor{
			BirthDate: date(2005, 1, 1),
			Sex:       "M",
			DonationHistory: []DonationRecord{
				{ID: "d1", DonationDate: now.Add(-24 * time.Hour), NextDonationDate: now.Add(30 * 24 * time.Hour)},
			},
		}
		result := EvaluateEligibility(donor, now)
		assert.Equal(t, TooYoung, result.Status)
	})
}

func TestEvaluateEligibility_CoolingOff(t *testing.T) {
	now := date(2019, 3, 1)
	birth := date(1990, 1, 1)

	t.Run("active cooling-off blocks donation", func(t *testing.T) {
		until := now.Add(16 * 24 * time.Hour)
		donor := &Donor{
			BirthDate: birth,
			Sex:       "M",
			DonationHistory: []DonationRecord{
				{ID: "d1", DonationDate: now.Add(-44 * 24 * time.Hour), NextDonationDate: until},
			},
		}
		result := EvaluateEligibility(donor, now)
		require.Equal(t, CoolingOffActive, result.Status)
		assert.Equal(t, until, result.NextEligibleAt)
	})

	t.Run("cooling-off expiring exactly now is over", func(t *testing.T) {
		donor := &Donor{
			BirthDate: birth,
			Sex:       "M",
			DonationHistory: []DonationRecord{
				{ID: "d1", DonationDate: now.Add(-60 * 24 * time.Hour), NextDonationDate: now},
			},
		}
		result := EvaluateEligibility(donor, now)
		assert.Equal(t, Eligible, result.Status)
	})

	t.Run("only the most recent donation matters", func(t *testing.T) {
		donor := &Donor{
			BirthDate: birth,
			Sex:       "F",
			DonationHistory: []DonationRecord{
				{ID: "d1", DonationDate: date(2018, 1, 1), NextDonationDate: date(2018, 4, 1)},
				{ID: "d2", DonationDate: date(2018, 6, 1), NextDonationDate: date(2018, 9, 1)},
			},
		}
		result := EvaluateEligibility(donor, now)
		assert.Equal(t, Eligible, result.Status)
	})

	t.Run("no history means no cooling-off", func(t *testing.T) {
		donor := &Donor{BirthDate: birth, Sex: "F"}
		result := EvaluateEligibility(donor, now)
		assert.Equal(t, Eligible, result.Status)
	})
}

func TestCoolingOffFor(t *testing.T) {
	assert.Equal(t, CoolingOffFemale, CoolingOffFor("F"))
	assert.Equal(t, CoolingOffFemale, CoolingOffFor("f"))
	assert.Equal(t, CoolingOffMale, CoolingOffFor("M"))
	assert.Equal(t, CoolingOffMale, CoolingOffFor(""))
}

func TestIneligibleDonorError_Message(t *testing.T) {
	err := &IneligibleDonorError{Result: EligibilityResult{Status: TooYoung}}
	assert.Contains(t, err.Error(), "too young")

	err = &IneligibleDonorError{Result: EligibilityResult{
		Status:         CoolingOffActive,
		NextEligibleAt: date(2019, 4, 15),
	}}
	assert.Contains(t, err.Error(), "2019-04-15")
}

func TestDonorHelpers(t *testing.T) {
	t.Run("open donation is the last unfinalized record", func(t *testing.T) {
		donor := &Donor{DonationHistory: []DonationRecord{
			{ID: "d1", BloodTests: []BloodTestResult{{ID: "t1", BloodType: OPos, ExamsResult: ExamsApproved}}},
			{ID: "d2"},
		}}
		open := donor.OpenDonation()
		require.NotNil(t, open)
		assert.Equal(t, "d2", open.ID)
	})

	t.Run("finalized history has no open donation", func(t *testing.T) {
		donor := &Donor{DonationHistory: []DonationRecord{
			{ID: "d1", BloodTests: []BloodTestResult{{ID: "t1", BloodType: OPos, ExamsResult: ExamsApproved}}},
		}}
		assert.Nil(t, donor.OpenDonation())
	})

	t.Run("find donation by id", func(t *testing.T) {
		donor := &Donor{DonationHistory: []DonationRecord{{ID: "d1"}, {ID: "d2"}}}
		require.NotNil(t, donor.FindDonation("d1"))
		assert.Nil(t, donor.FindDonation("missing"))
	})
}

func TestBloodTypeValid(t *testing.T) {
	for _, bt := range BloodTypes {
		assert.True(t, bt.Valid(), string(bt))
	}
	assert.False(t, BloodType("C+").Valid())
	assert.False(t, BloodType("o+").Valid())
	assert.False(t, BloodType("").Valid())
}
