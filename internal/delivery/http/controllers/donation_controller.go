package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bloodbank/internal/delivery/http/helpers"
	"bloodbank/internal/domain"
)

// BloodTestPayload is one blood test result in an AddBloodExamsRequest.
type BloodTestPayload struct {
	BloodType   string   `json:"bloodType"`
	Exams       []string `json:"exams"`
	ExamsResult string   `json:"examsResult"`
}

// AddBloodExamsRequest is the request body for
// PATCH /donors/{donorID}/donations/{donationID}/exams.
type AddBloodExamsRequest struct {
	BloodTests []BloodTestPayload `json:"bloodTest"`
}

// Validate implements Validator.
func (r AddBloodExamsRequest) Validate() []string {
	var errs []string
	if len(r.BloodTests) == 0 {
		errs = append(errs, "bloodTest must contain at least one result")
	}
	for _, t := range r.BloodTests {
		if !domain.BloodType(strings.ToUpper(strings.TrimSpace(t.BloodType))).Valid() {
			errs = append(errs, "bloodType must be one of the eight ABO/Rh types")
		}
		result := strings.ToLower(strings.TrimSpace(t.ExamsResult))
		if result != domain.ExamsApproved && result != domain.ExamsRejected {
			errs = append(errs, "examsResult must be \"approved\" or \"rejected\"")
		}
		if len(t.Exams) == 0 {
			errs = append(errs, "exams must list the exams performed")
		}
	}
	return errs
}

// DonationController handles the donation lifecycle endpoints.
type DonationController struct {
	Logger  *slog.Logger
	Service domain.DonationService
}

// NewDonationController creates a DonationController with the given logger and service.
func NewDonationController(logger *slog.Logger, svc domain.DonationService) *DonationController {
	return &DonationController{Logger: logger, Service: svc}
}

// Create godoc
// @Summary Register a new donation for a donor
// @Description Creates an open donation record dated now. Fails if the donor is ineligible (age or cooling-off) or already has an open donation awaiting blood tests.
// @Tags donations
// @Produce json
// @Param donorID path string true "Donor ID"
// @Security BearerAuth
// @Success 201 {object} helpers.APIResponse "data contains the created donation record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{donorID}/donations [post]
func (c *DonationController) Create(w http.ResponseWriter, r *http.Request) {
	record, err := c.Service.CreateDonation(r.Context(), r.PathValue("donorID"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, record)
}

// Read godoc
// @Summary Read a donor's donation history
// @Description Returns the full ordered history, or a single record when donationId is given as a query parameter.
// @Tags donations
// @Produce json
// @Param donorID path string true "Donor ID"
// @Param donationId query string false "Donation record ID"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the record or the history"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{donorID}/donations [get]
func (c *DonationController) Read(w http.ResponseWriter, r *http.Request) {
	donorID := r.PathValue("donorID")
	if donationID := r.URL.Query().Get("donationId"); donationID != "" {
		record, err := c.Service.ReadDonation(r.Context(), donorID, donationID)
		if err != nil {
			c.writeError(w, r, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, record)
		return
	}
	history, err := c.Service.ReadHistory(r.Context(), donorID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, history)
}

// AddBloodExams godoc
// @Summary Attach blood test results to a donation
// @Description Finalizes an open donation with its laboratory results. A donation that already has results cannot be amended again.
// @Tags donations
// @Accept json
// @Produce json
// @Param donorID path string true "Donor ID"
// @Param donationID path string true "Donation record ID"
// @Param body body AddBloodExamsRequest true "Blood test results"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the finalized record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{donorID}/donations/{donationID}/exams [patch]
func (c *DonationController) AddBloodExams(w http.ResponseWriter, r *http.Request) {
	var req AddBloodExamsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tests := make([]domain.NewBloodTest, len(req.BloodTests))
	for i, t := range req.BloodTests {
		tests[i] = domain.NewBloodTest{
			BloodType:   domain.BloodType(strings.ToUpper(strings.TrimSpace(t.BloodType))),
			Exams:       t.Exams,
			ExamsResult: t.ExamsResult,
		}
	}
	record, err := c.Service.AddBloodExams(r.Context(), r.PathValue("donorID"), r.PathValue("donationID"), tests)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, record)
}

// Delete godoc
// @Summary Delete a donor's most recent donation
// @Description Removes only the last donation record in the donor's history.
// @Tags donations
// @Produce json
// @Param donorID path string true "Donor ID"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the removed record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{donorID}/donations [delete]
func (c *DonationController) Delete(w http.ResponseWriter, r *http.Request) {
	record, err := c.Service.DeleteDonation(r.Context(), r.PathValue("donorID"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, record)
}

func (c *DonationController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ineligible *domain.IneligibleDonorError
	switch {
	case errors.Is(err, domain.ErrDonorNotFound), errors.Is(err, domain.ErrDonationNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.As(err, &ineligible),
		errors.Is(err, domain.ErrNoDonationToDelete),
		errors.Is(err, domain.ErrInvalidBloodType):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrOpenDonationExists), errors.Is(err, domain.ErrDonationFinalized):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "donor is being modified concurrently, try again")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "unexpected error")
	}
}
