package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for donor and donation operations.
var (
	ErrDonorNotFound      = errors.New("donor not found")
	ErrDonationNotFound   = errors.New("donation not found")
	ErrDuplicateCPF       = errors.New("a donor with this CPF already exists")
	ErrInvalidCPF         = errors.New("invalid CPF")
	ErrAgeOutOfRange      = errors.New("donor age must be between 18 and 69")
	ErrOpenDonationExists = errors.New("donor already has an open donation")
	ErrDonationFinalized  = errors.New("donation already has blood test results")
	ErrNoDonationToDelete = errors.New("donor has no donations to delete")
	ErrInvalidBloodType   = errors.New("invalid blood type")
	ErrVersionConflict    = errors.New("donor was modified concurrently")
)

// Domain constants for whole-blood donation.
const (
	// ShelfLife is how long a collected whole-blood unit stays usable.
	ShelfLife = 42 * 24 * time.Hour

	// Minimum interval between donations, per donor sex.
	CoolingOffMale   = 60 * 24 * time.Hour
	CoolingOffFemale = 90 * 24 * time.Hour

	MinDonorAge = 18
	MaxDonorAge = 69
)

// BloodType is one of the eight ABO/Rh types.
type BloodType string

const (
	ONeg  BloodType = "O-"
	OPos  BloodType = "O+"
	ANeg  BloodType = "A-"
	APos  BloodType = "A+"
	BNeg  BloodType = "B-"
	BPos  BloodType = "B+"
	ABNeg BloodType = "AB-"
	ABPos BloodType = "AB+"
)

// BloodTypes lists all blood types in the fixed order used for stock reports.
var BloodTypes = []BloodType{ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos}

// Valid reports whether b is one of the eight ABO/Rh types.
func (b BloodType) Valid() bool {
	for _, t := range BloodTypes {
		if b == t {
			return true
		}
	}
	return false
}

// Exam outcome values for BloodTestResult.ExamsResult.
const (
	ExamsApproved = "approved"
	ExamsRejected = "rejected"
)

// BloodTestResult is a laboratory outcome attached to a donation.
// BloodType is immutable once attached; correcting a mistyped unit requires
// deleting and recreating the donation record.
type BloodTestResult struct {
	ID          string    `json:"id"`
	BloodType   BloodType `json:"bloodType"`
	Exams       []string  `json:"exams"`
	ExamsResult string    `json:"examsResult"`
}

// DonationRecord is one blood-donation event embedded in a donor's history.
// A record with no blood tests attached is "open"; attaching results
// finalizes it.
type DonationRecord struct {
	ID               string            `json:"id"`
	DonationDate     time.Time         `json:"donationDate"`
	BloodTests       []BloodTestResult `json:"bloodTest"`
	ExpiryDate       *time.Time        `json:"expiryDate"`
	NextDonationDate time.Time         `json:"nextDonationDate"`
}

// Open reports whether the record is still awaiting blood test results.
func (r *DonationRecord) Open() bool {
	return len(r.BloodTests) == 0
}

// Donor represents a registered blood donor. DonationHistory is append-mostly:
// records are appended in chronological order and never reordered; only the
// most recent record may be deleted.
// swagger:model Donor
type Donor struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	CPF             string           `json:"cpf"`
	BirthDate       time.Time        `json:"birthDate"`
	Sex             string           `json:"sex"`
	Address         string           `json:"address"`
	Phone           string           `json:"phone"`
	DonationHistory []DonationRecord `json:"donationHistory"`
	Version         int              `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// LastDonation returns the most recent donation record, or nil if the donor
// has never donated.
func (d *Donor) LastDonation() *DonationRecord {
	if len(d.DonationHistory) == 0 {
		return nil
	}
	return &d.DonationHistory[len(d.DonationHistory)-1]
}

// OpenDonation returns the donor's open donation record, or nil if none.
// At most one record may be open at any time, and it is always the last one.
func (d *Donor) OpenDonation() *DonationRecord {
	last := d.LastDonation()
	if last != nil && last.Open() {
		return last
	}
	return nil
}

// FindDonation returns the donation record with the given id, or nil.
func (d *Donor) FindDonation(donationID string) *DonationRecord {
	for i := range d.DonationHistory {
		if d.DonationHistory[i].ID == donationID {
			return &d.DonationHistory[i]
		}
	}
	return nil
}

// CPFValidator validates the format/checksum of a Brazilian CPF number.
type CPFValidator interface {
	IsValid(cpf string) bool
}

// DonorRepository defines the interface for donor storage. Implementations
// must provide atomic single-row updates; UpdateHistory is a compare-and-swap
// on the donor's version and returns ErrVersionConflict when the expected
// version no longer matches.
type DonorRepository interface {
	Create(ctx context.Context, donor *Donor) error
	GetByID(ctx context.Context, id string) (*Donor, error)
	GetByCPF(ctx context.Context, cpf string) (*Donor, error)
	List(ctx context.Context) ([]*Donor, error)
	Update(ctx context.Context, donor *Donor) error
	UpdateHistory(ctx context.Context, donorID string, history []DonationRecord, expectedVersion int) error
	Delete(ctx context.Context, id string) error
}

// DonorService defines the business logic for donor registration and profile
// maintenance.
type DonorService interface {
	Register(ctx context.Context, donor *Donor) (*Donor, error)
	GetByID(ctx context.Context, id string) (*Donor, error)
	List(ctx context.Context) ([]*Donor, error)
	Update(ctx context.Context, id string, patch *DonorPatch) (*Donor, error)
	Delete(ctx context.Context, id string) error
}

// DonorPatch carries optional field updates for a donor. Nil fields are left
// unchanged. DonationHistory is not patchable; it changes only through the
// donation lifecycle.
type DonorPatch struct {
	Name    *string `json:"name"`
	Sex     *string `json:"sex"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

// NewBloodTest carries one blood test result to attach to a donation.
type NewBloodTest struct {
	BloodType   BloodType `json:"bloodType"`
	Exams       []string  `json:"exams"`
	ExamsResult string    `json:"examsResult"`
}

// DonationService is the donation lifecycle manager: it creates, reads,
// finalizes, and deletes donation records within a donor's history.
type DonationService interface {
	CreateDonation(ctx context.Context, donorID string) (*DonationRecord, error)
	ReadDonation(ctx context.Context, donorID, donationID string) (*DonationRecord, error)
	ReadHistory(ctx context.Context, donorID string) ([]DonationRecord, error)
	AddBloodExams(ctx context.Context, donorID, donationID string, tests []NewBloodTest) (*DonationRecord, error)
	DeleteDonation(ctx context.Context, donorID string) (*DonationRecord, error)
}

// StockService aggregates usable blood-unit counts per blood type.
type StockService interface {
	AggregateStock(ctx context.Context, asOf time.Time) (map[BloodType]int, error)
}
