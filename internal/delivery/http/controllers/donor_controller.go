package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bloodbank/internal/delivery/http/helpers"
	"bloodbank/internal/domain"
)

// RegisterDonorRequest is the request body for POST /donors
type RegisterDonorRequest struct {
	Name      string `json:"name"`
	CPF       string `json:"cpf"`
	BirthDate string `json:"birthDate"` // RFC 3339 date, e.g. "1990-05-20"
	Sex       string `json:"sex"`       // "M" or "F"
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

// Validate implements Validator.
func (r RegisterDonorRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(r.CPF) == "" {
		errs = append(errs, "cpf is required")
	}
	if r.BirthDate == "" {
		errs = append(errs, "birthDate is required")
	} else if _, err := parseDate(r.BirthDate); err != nil {
		errs = append(errs, "birthDate must be a date in YYYY-MM-DD format")
	}
	sex := strings.ToUpper(strings.TrimSpace(r.Sex))
	if sex != "M" && sex != "F" {
		errs = append(errs, "sex must be \"M\" or \"F\"")
	}
	if strings.TrimSpace(r.Address) == "" {
		errs = append(errs, "address is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	return errs
}

// UpdateDonorRequest is the request body for PATCH /donors/{id}. All fields
// are optional; the donation history cannot be patched.
type UpdateDonorRequest struct {
	Name    *string `json:"name"`
	Sex     *string `json:"sex"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

// Validate implements Validator.
func (r UpdateDonorRequest) Validate() []string {
	var errs []string
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if r.Sex != nil {
		sex := strings.ToUpper(strings.TrimSpace(*r.Sex))
		if sex != "M" && sex != "F" {
			errs = append(errs, "sex must be \"M\" or \"F\"")
		}
	}
	return errs
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// DonorController handles donor registration and profile endpoints.
type DonorController struct {
	Logger  *slog.Logger
	Service domain.DonorService
}

// NewDonorController creates a DonorController with the given logger and service.
func NewDonorController(logger *slog.Logger, svc domain.DonorService) *DonorController {
	return &DonorController{Logger: logger, Service: svc}
}

// Register godoc
// @Summary Register a new donor
// @Description Register a donor. The CPF must be valid and unused, and the donor's age must be between 18 and 69.
// @Tags donors
// @Accept json
// @Produce json
// @Param body body RegisterDonorRequest true "Donor data"
// @Security BearerAuth
// @Success 201 {object} helpers.APIResponse "data contains the created donor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors [post]
func (c *DonorController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterDonorRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	birthDate, _ := parseDate(req.BirthDate)
	donor := &domain.Donor{
		Name:      req.Name,
		CPF:       req.CPF,
		BirthDate: birthDate,
		Sex:       strings.ToUpper(strings.TrimSpace(req.Sex)),
		Address:   req.Address,
		Phone:     req.Phone,
	}
	created, err := c.Service.Register(r.Context(), donor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCPF),
			errors.Is(err, domain.ErrAgeOutOfRange),
			errors.Is(err, domain.ErrDuplicateCPF):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to register donor")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// Get godoc
// @Summary Get a donor
// @Tags donors
// @Produce json
// @Param id path string true "Donor ID"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the donor"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{id} [get]
func (c *DonorController) Get(w http.ResponseWriter, r *http.Request) {
	donor, err := c.Service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, donor)
}

// List godoc
// @Summary List all donors
// @Tags donors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains all donors"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors [get]
func (c *DonorController) List(w http.ResponseWriter, r *http.Request) {
	donors, err := c.Service.List(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if donors == nil {
		donors = []*domain.Donor{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, donors)
}

// Update godoc
// @Summary Update a donor's profile
// @Description Patch donor identity fields. The donation history is not patchable.
// @Tags donors
// @Accept json
// @Produce json
// @Param id path string true "Donor ID"
// @Param body body UpdateDonorRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the updated donor"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{id} [patch]
func (c *DonorController) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateDonorRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	patch := &domain.DonorPatch{Name: req.Name, Sex: req.Sex, Address: req.Address, Phone: req.Phone}
	donor, err := c.Service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, donor)
}

// Delete godoc
// @Summary Delete a donor
// @Tags donors
// @Produce json
// @Param id path string true "Donor ID"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donors/{id} [delete]
func (c *DonorController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Delete(r.Context(), r.PathValue("id")); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "donor deleted"})
}

func (c *DonorController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrDonorNotFound) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "unexpected error")
}
