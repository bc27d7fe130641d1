package domain

import "time"

// EligibilityStatus classifies whether a donor may donate right now.
type EligibilityStatus int

const (
	Eligible EligibilityStatus = iota
	TooYoung
	TooOld
	CoolingOffActive
)

func (s EligibilityStatus) String() string {
	switch s {
	case Eligible:
		return "eligible"
	case TooYoung:
		return "too young"
	case TooOld:
		return "too old"
	case CoolingOffActive:
		return "cooling-off period active"
	default:
		return "unknown"
	}
}

// EligibilityResult is the outcome of evaluating a donor. NextEligibleAt is
// set only when Status is CoolingOffActive.
type EligibilityResult struct {
	Status         EligibilityStatus
	NextEligibleAt time.Time
}

// IneligibleDonorError is returned by the lifecycle manager when a donation
// is attempted for a donor who may not donate.
type IneligibleDonorError struct {
	Result EligibilityResult
}

func (e *IneligibleDonorError) Error() string {
	if e.Result.Status == CoolingOffActive {
		return "donor is ineligible: cooling-off period active until " +
			e.Result.NextEligibleAt.Format(time.DateOnly)
	}
	return "donor is ineligible: " + e.Result.Status.String()
}

// AgeAt computes the donor's age in whole years at the given instant.
//
// This intentionally reproduces the epoch-anchored convention the system has
// always used: the birth-to-now duration is reinterpreted as an instant on
// the Unix epoch timeline and the year count is read off from 1970. It can
// drift by a day around year boundaries compared to true calendar
// arithmetic, but stored records were classified with it, so it must not
// change.
func AgeAt(birthDate, now time.Time) int {
	diff := now.Sub(birthDate)
	return time.UnixMilli(diff.Milliseconds()).UTC().Year() - 1970
}

// EvaluateEligibility reports whether the donor may register a new donation
// at the given instant. Pure function: no side effects, no clock access.
//
// Age gates take precedence over the cooling-off check, so an under- or
// over-age donor is reported as such regardless of donation history.
func EvaluateEligibility(donor *Donor, now time.Time) EligibilityResult {
	age := AgeAt(donor.BirthDate, now)
	if age < MinDonorAge {
		return EligibilityResult{Status: TooYoung}
	}
	if age > MaxDonorAge {
		return EligibilityResult{Status: TooOld}
	}
	if last := donor.LastDonation(); last != nil && last.NextDonationDate.After(now) {
		return EligibilityResult{
			Status:         CoolingOffActive,
			NextEligibleAt: last.NextDonationDate,
		}
	}
	return EligibilityResult{Status: Eligible}
}

// CoolingOffFor returns the minimum interval before the next donation for a
// donor of the given sex. Any value other than "F" gets the male interval,
// matching how registrations have historically been recorded.
func CoolingOffFor(sex string) time.Duration {
	if sex == "F" || sex == "f" {
		return CoolingOffFemale
	}
	return CoolingOffMale
}
