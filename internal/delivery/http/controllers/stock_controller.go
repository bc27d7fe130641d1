package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"bloodbank/internal/delivery/http/helpers"
	"bloodbank/internal/domain"
)

// BloodTypeStock is one entry in the stock report.
type BloodTypeStock struct {
	BloodType domain.BloodType `json:"bloodType"`
	Units     int              `json:"units"`
}

// StockController handles the blood-stock endpoint.
type StockController struct {
	Logger  *slog.Logger
	Service domain.StockService
}

// NewStockController creates a StockController with the given logger and service.
func NewStockController(logger *slog.Logger, svc domain.StockService) *StockController {
	return &StockController{Logger: logger, Service: svc}
}

// Get godoc
// @Summary Current blood stock per blood type
// @Description Counts usable units (finalized, approved, not expired) per blood type. All eight types are always listed, in fixed order. An asOf query parameter (YYYY-MM-DD) overrides "now".
// @Tags stock
// @Produce json
// @Param asOf query string false "Reference date, defaults to now"
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains one entry per blood type"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /stock [get]
func (c *StockController) Get(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if s := r.URL.Query().Get("asOf"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "asOf must be a date in YYYY-MM-DD format")
			return
		}
		asOf = parsed
	}
	stock, err := c.Service.AggregateStock(r.Context(), asOf)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to aggregate stock")
		return
	}
	// Fixed iteration order so the report is deterministic.
	report := make([]BloodTypeStock, 0, len(domain.BloodTypes))
	for _, t := range domain.BloodTypes {
		report = append(report, BloodTypeStock{BloodType: t, Units: stock[t]})
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}
