package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bloodbank/internal/delivery/http/helpers"
	"bloodbank/internal/delivery/http/middleware"
	"bloodbank/internal/domain"
)

// CreateEmployeeRequest is the request body for POST /employees
type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Validate implements Validator.
func (r CreateEmployeeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, "email is required")
	}
	if len(r.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// ChangePasswordRequest is the request body for PATCH /employees/{code}/password
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// Validate implements Validator.
func (r ChangePasswordRequest) Validate() []string {
	if len(r.Password) < 8 {
		return []string{"password must be at least 8 characters"}
	}
	return nil
}

// EmployeeController handles staff account endpoints.
type EmployeeController struct {
	Logger  *slog.Logger
	Service domain.EmployeeService
}

// NewEmployeeController creates an EmployeeController with the given logger and service.
func NewEmployeeController(logger *slog.Logger, svc domain.EmployeeService) *EmployeeController {
	return &EmployeeController{Logger: logger, Service: svc}
}

// Create godoc
// @Summary Register a new employee
// @Description Creates a staff account. The 6-digit access code is generated and emailed to the employee.
// @Tags employees
// @Accept json
// @Produce json
// @Param body body CreateEmployeeRequest true "Employee data"
// @Security BearerAuth
// @Success 201 {object} helpers.APIResponse "data contains the created employee"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employees [post]
func (c *EmployeeController) Create(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req CreateEmployeeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	employee, err := c.Service.Create(r.Context(), req.Name, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmployeeCode),
			strings.Contains(err.Error(), "invalid email"),
			strings.Contains(err.Error(), "password must be"):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to create employee")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, employee)
}

// Get godoc
// @Summary Get an employee by access code
// @Tags employees
// @Produce json
// @Param code path string true "Employee code"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the employee"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employees/{code} [get]
func (c *EmployeeController) Get(w http.ResponseWriter, r *http.Request) {
	employee, err := c.Service.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, employee)
}

// List godoc
// @Summary List all employees
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains all employees"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employees [get]
func (c *EmployeeController) List(w http.ResponseWriter, r *http.Request) {
	employees, err := c.Service.List(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if employees == nil {
		employees = []*domain.Employee{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, employees)
}

// ChangePassword godoc
// @Summary Change an employee's password
// @Tags employees
// @Accept json
// @Produce json
// @Param code path string true "Employee code"
// @Param body body ChangePasswordRequest true "New password"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employees/{code}/password [patch]
func (c *EmployeeController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ChangePassword(r.Context(), r.PathValue("code"), req.Password); err != nil {
		if strings.Contains(err.Error(), "password must be") {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// Delete godoc
// @Summary Delete an employee
// @Description Removes a staff account. Administrators cannot be deleted.
// @Tags employees
// @Produce json
// @Param code path string true "Employee code"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employees/{code} [delete]
func (c *EmployeeController) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	if err := c.Service.Delete(r.Context(), r.PathValue("code")); err != nil {
		if errors.Is(err, domain.ErrCannotDeleteAdmin) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
			return
		}
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "employee deleted"})
}

func (c *EmployeeController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrEmployeeNotFound) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "unexpected error")
}

// requireAdmin guards admin-only employee operations.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !middleware.IsAdminFromContext(r.Context()) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "administrator access required")
		return false
	}
	return true
}
