package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
)

// fakeDonorRepo implements domain.DonorRepository for tests. UpdateHistory
// can be programmed to fail with version conflicts to exercise the retry
// loop, simulating another writer bumping the version in between.
type fakeDonorRepo struct {
	byID          map[string]*domain.Donor
	byCPF         map[string]*domain.Donor
	conflictsLeft int
	updateErr     error
	listErr       error
	createErr     error
}

func newFakeDonorRepo(donors ...*domain.Donor) *fakeDonorRepo {
	f := &fakeDonorRepo{
		byID:  make(map[string]*domain.Donor),
		byCPF: make(map[string]*domain.Donor),
	}
	for _, d := range donors {
		f.byID[d.ID] = d
		f.byCPF[d.CPF] = d
	}
	return f
}

func copyDonor(d *domain.Donor) *domain.Donor {
	cp := *d
	cp.DonationHistory = append([]domain.DonationRecord(nil), d.DonationHistory...)
	return &cp
}

func (f *fakeDonorRepo) Create(ctx context.Context, d *domain.Donor) error {
	if f.createErr != nil {
		return f.createErr
	}
	d.ID = "donor-1"
	d.Version = 1
	f.byID[d.ID] = copyDonor(d)
	f.byCPF[d.CPF] = f.byID[d.ID]
	return nil
}

func (f *fakeDonorRepo) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	if d, ok := f.byID[id]; ok {
		return copyDonor(d), nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDonorRepo) GetByCPF(ctx context.Context, cpf string) (*domain.Donor, error) {
	if d, ok := f.byCPF[cpf]; ok {
		return copyDonor(d), nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDonorRepo) List(ctx context.Context) ([]*domain.Donor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Donor
	for _, d := range f.byID {
		out = append(out, copyDonor(d))
	}
	return out, nil
}

func (f *fakeDonorRepo) Update(ctx context.Context, d *domain.Donor) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[d.ID]
	if !ok {
		return domain.ErrDonorNotFound
	}
	history := stored.DonationHistory
	*stored = *copyDonor(d)
	stored.DonationHistory = history
	return nil
}

func (f *fakeDonorRepo) UpdateHistory(ctx context.Context, donorID string, history []domain.DonationRecord, expectedVersion int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[donorID]
	if !ok {
		return domain.ErrDonorNotFound
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		stored.Version++
		return domain.ErrVersionConflict
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	stored.DonationHistory = append([]domain.DonationRecord(nil), history...)
	stored.Version++
	return nil
}

func (f *fakeDonorRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrDonorNotFound
	}
	delete(f.byID, id)
	return nil
}

var testNow = time.Date(2019, 3, 1, 10, 0, 0, 0, time.UTC)

func eligibleDonor(sex string) *domain.Donor {
	return &domain.Donor{
		ID:        "donor-1",
		Name:      "Maria Silva",
		CPF:       "52998224725",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Sex:       sex,
		Version:   1,
	}
}

func newTestDonationService(repo domain.DonorRepository) *donationService {
	return &donationService{donorRepo: repo, now: func() time.Time { return testNow }}
}

func TestCreateDonation(t *testing.T) {
	ctx := context.Background()

	t.Run("donor not found", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo())
		_, err := svc.CreateDonation(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrDonorNotFound)
	})

	t.Run("creates open record with derived dates", func(t *testing.T) {
		repo := newFakeDonorRepo(eligibleDonor("F"))
		svc := newTestDonationService(repo)

		record, err := svc.CreateDonation(ctx, "donor-1")
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, testNow, record.DonationDate)
		require.NotNil(t, record.ExpiryDate)
		assert.Equal(t, testNow.Add(domain.ShelfLife), *record.ExpiryDate)
		assert.Equal(t, testNow.Add(domain.CoolingOffFemale), record.NextDonationDate)
		assert.True(t, record.Open())

		stored, _ := repo.GetByID(ctx, "donor-1")
		require.Len(t, stored.DonationHistory, 1)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("male donor gets the shorter cooling-off", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo(eligibleDonor("M")))
		record, err := svc.CreateDonation(ctx, "donor-1")
		require.NoError(t, err)
		assert.Equal(t, testNow.Add(domain.CoolingOffMale), record.NextDonationDate)
	})

	t.Run("open donation blocks a second one", func(t *testing.T) {
		donor := eligibleDonor("M")
		donor.DonationHistory = []domain.DonationRecord{
			{ID: "d1", DonationDate: testNow.Add(-time.Hour), NextDonationDate: testNow.Add(59 * 24 * time.Hour)},
		}
		svc := newTestDonationService(newFakeDonorRepo(donor))
		_, err := svc.CreateDonation(ctx, "donor-1")
		// The fresh donation also puts the donor in cooling-off, which is
		// checked first.
		var ineligible *domain.IneligibleDonorError
		require.ErrorAs(t, err, &ineligible)
		assert.Equal(t, domain.CoolingOffActive, ineligible.Result.Status)
	})

	t.Run("open donation past cooling-off still blocks", func(t *testing.T) {
		donor := eligibleDonor("M")
		donor.DonationHistory = []domain.DonationRecord{
			{ID: "d1", DonationDate: testNow.Add(-61 * 24 * time.Hour), NextDonationDate: testNow.Add(-24 * time.Hour)},
		}
		svc := newTestDonationService(newFakeDonorRepo(donor))
		_, err := svc.CreateDonation(ctx, "donor-1")
		require.ErrorIs(t, err, domain.ErrOpenDonationExists)
	})

	t.Run("cooling-off donor is rejected", func(t *testing.T) {
		donor := eligibleDonor("M")
		expiry := testNow.Add(2 * 24 * time.Hour)
		donor.DonationHistory = []domain.DonationRecord{
			{
				ID:               "d1",
				DonationDate:     testNow.Add(-40 * 24 * time.Hour),
				BloodTests:       []domain.BloodTestResult{{ID: "t1", BloodType: domain.OPos, ExamsResult: domain.ExamsApproved}},
				ExpiryDate:       &expiry,
				NextDonationDate: testNow.Add(20 * 24 * time.Hour),
			},
		}
		svc := newTestDonationService(newFakeDonorRepo(donor))
		_, err := svc.CreateDonation(ctx, "donor-1")
		var ineligible *domain.IneligibleDonorError
		require.ErrorAs(t, err, &ineligible)
		assert.Equal(t, domain.CoolingOffActive, ineligible.Result.Status)
		assert.Equal(t, testNow.Add(20*24*time.Hour), ineligible.Result.NextEligibleAt)
	})

	t.Run("underage donor is rejected", func(t *testing.T) {
		donor := eligibleDonor("M")
		donor.BirthDate = time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
		svc := newTestDonationService(newFakeDonorRepo(donor))
		_, err := svc.CreateDonation(ctx, "donor-1")
		var ineligible *domain.IneligibleDonorError
		require.ErrorAs(t, err, &ineligible)
		assert.Equal(t, domain.TooYoung, ineligible.Result.Status)
	})

	t.Run("retries once on version conflict and succeeds", func(t *testing.T) {
		repo := newFakeDonorRepo(eligibleDonor("M"))
		repo.conflictsLeft = 1
		svc := newTestDonationService(repo)
		record, err := svc.CreateDonation(ctx, "donor-1")
		require.NoError(t, err)
		assert.NotNil(t, record)
	})

	t.Run("gives up after bounded retries", func(t *testing.T) {
		repo := newFakeDonorRepo(eligibleDonor("M"))
		repo.conflictsLeft = maxUpdateRetries + 1
		svc := newTestDonationService(repo)
		_, err := svc.CreateDonation(ctx, "donor-1")
		require.ErrorIs(t, err, domain.ErrVersionConflict)
	})
}

func TestReadDonation(t *testing.T) {
	ctx := context.Background()
	donor := eligibleDonor("M")
	donor.DonationHistory = []domain.DonationRecord{{ID: "d1"}, {ID: "d2"}}
	svc := newTestDonationService(newFakeDonorRepo(donor))

	t.Run("single record", func(t *testing.T) {
		record, err := svc.ReadDonation(ctx, "donor-1", "d2")
		require.NoError(t, err)
		assert.Equal(t, "d2", record.ID)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := svc.ReadDonation(ctx, "donor-1", "missing")
		require.ErrorIs(t, err, domain.ErrDonationNotFound)
	})

	t.Run("full history in insertion order", func(t *testing.T) {
		history, err := svc.ReadHistory(ctx, "donor-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "d1", history[0].ID)
		assert.Equal(t, "d2", history[1].ID)
	})

	t.Run("reads are repeatable", func(t *testing.T) {
		first, err := svc.ReadHistory(ctx, "donor-1")
		require.NoError(t, err)
		second, err := svc.ReadHistory(ctx, "donor-1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unknown donor", func(t *testing.T) {
		_, err := svc.ReadHistory(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrDonorNotFound)
	})
}

func TestAddBloodExams(t *testing.T) {
	ctx := context.Background()

	openDonor := func() *domain.Donor {
		donor := eligibleDonor("M")
		expiry := testNow.Add(domain.ShelfLife)
		donor.DonationHistory = []domain.DonationRecord{
			{ID: "d1", DonationDate: testNow.Add(-time.Hour), ExpiryDate: &expiry, NextDonationDate: testNow.Add(59 * 24 * time.Hour)},
		}
		return donor
	}
	tests := []domain.NewBloodTest{
		{BloodType: domain.ONeg, Exams: []string{"HIV", "Hepatitis B"}, ExamsResult: "approved"},
	}

	t.Run("finalizes an open record", func(t *testing.T) {
		repo := newFakeDonorRepo(openDonor())
		svc := newTestDonationService(repo)

		record, err := svc.AddBloodExams(ctx, "donor-1", "d1", tests)
		require.NoError(t, err)
		require.Len(t, record.BloodTests, 1)
		assert.NotEmpty(t, record.BloodTests[0].ID)
		assert.Equal(t, domain.ONeg, record.BloodTests[0].BloodType)
		assert.Equal(t, domain.ExamsApproved, record.BloodTests[0].ExamsResult)
		assert.False(t, record.Open())
	})

	t.Run("second amendment is rejected and data unchanged", func(t *testing.T) {
		repo := newFakeDonorRepo(openDonor())
		svc := newTestDonationService(repo)

		first, err := svc.AddBloodExams(ctx, "donor-1", "d1", tests)
		require.NoError(t, err)

		_, err = svc.AddBloodExams(ctx, "donor-1", "d1", []domain.NewBloodTest{
			{BloodType: domain.ABPos, Exams: []string{"HIV"}, ExamsResult: "rejected"},
		})
		require.ErrorIs(t, err, domain.ErrDonationFinalized)

		stored, err := svc.ReadDonation(ctx, "donor-1", "d1")
		require.NoError(t, err)
		assert.Equal(t, first.BloodTests, stored.BloodTests)
	})

	t.Run("unknown donation", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo(openDonor()))
		_, err := svc.AddBloodExams(ctx, "donor-1", "missing", tests)
		require.ErrorIs(t, err, domain.ErrDonationNotFound)
	})

	t.Run("invalid blood type", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo(openDonor()))
		_, err := svc.AddBloodExams(ctx, "donor-1", "d1", []domain.NewBloodTest{
			{BloodType: "X+", Exams: []string{"HIV"}, ExamsResult: "approved"},
		})
		require.ErrorIs(t, err, domain.ErrInvalidBloodType)
	})

	t.Run("empty payload", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo(openDonor()))
		_, err := svc.AddBloodExams(ctx, "donor-1", "d1", nil)
		require.Error(t, err)
	})
}

func TestDeleteDonation(t *testing.T) {
	ctx := context.Background()

	t.Run("removes only the most recent record", func(t *testing.T) {
		donor := eligibleDonor("M")
		donor.DonationHistory = []domain.DonationRecord{
			{ID: "d1", DonationDate: testNow.Add(-120 * 24 * time.Hour)},
			{ID: "d2", DonationDate: testNow.Add(-10 * 24 * time.Hour)},
		}
		repo := newFakeDonorRepo(donor)
		svc := newTestDonationService(repo)

		removed, err := svc.DeleteDonation(ctx, "donor-1")
		require.NoError(t, err)
		assert.Equal(t, "d2", removed.ID)

		stored, _ := repo.GetByID(ctx, "donor-1")
		require.Len(t, stored.DonationHistory, 1)
		assert.Equal(t, "d1", stored.DonationHistory[0].ID)
	})

	t.Run("empty history", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo(eligibleDonor("M")))
		_, err := svc.DeleteDonation(ctx, "donor-1")
		require.ErrorIs(t, err, domain.ErrNoDonationToDelete)
	})

	t.Run("unknown donor", func(t *testing.T) {
		svc := newTestDonationService(newFakeDonorRepo())
		_, err := svc.DeleteDonation(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrDonorNotFound)
	})

	t.Run("storage errors surface", func(t *testing.T) {
		donor := eligibleDonor("M")
		donor.DonationHistory = []domain.DonationRecord{{ID: "d1"}}
		repo := newFakeDonorRepo(donor)
		repo.updateErr = errors.New("connection reset")
		svc := newTestDonationService(repo)
		_, err := svc.DeleteDonation(ctx, "donor-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrVersionConflict)
	})
}
