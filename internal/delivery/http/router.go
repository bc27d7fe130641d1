package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"bloodbank/internal/delivery/http/controllers"
	"bloodbank/internal/delivery/http/middleware"
	"bloodbank/internal/domain"
)

// RouterDeps bundles what the router needs to wire routes and middleware.
type RouterDeps struct {
	Logger    *slog.Logger
	Verifier  domain.TokenVerifier
	Blacklist domain.TokenBlacklist

	Auth      *controllers.AuthController
	Donors    *controllers.DonorController
	Donations *controllers.DonationController
	Stock     *controllers.StockController
	Employees *controllers.EmployeeController
}

// NewRouter initializes the HTTP router with all application routes.
// Everything except login and swagger requires a valid, non-revoked token.
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	protect := middleware.RequireAuth(deps.Verifier, deps.Blacklist, deps.Logger)

	// Auth
	mux.HandleFunc("POST /login", deps.Auth.Login)
	mux.HandleFunc("POST /logout", protect(deps.Auth.Logout))

	// Donors
	mux.HandleFunc("POST /donors", protect(deps.Donors.Register))
	mux.HandleFunc("GET /donors", protect(deps.Donors.List))
	mux.HandleFunc("GET /donors/{id}", protect(deps.Donors.Get))
	mux.HandleFunc("PATCH /donors/{id}", protect(deps.Donors.Update))
	mux.HandleFunc("DELETE /donors/{id}", protect(deps.Donors.Delete))

	// Donations
	mux.HandleFunc("POST /donors/{donorID}/donations", protect(deps.Donations.Create))
	mux.HandleFunc("GET /donors/{donorID}/donations", protect(deps.Donations.Read))
	mux.HandleFunc("PATCH /donors/{donorID}/donations/{donationID}/exams", protect(deps.Donations.AddBloodExams))
	mux.HandleFunc("DELETE /donors/{donorID}/donations", protect(deps.Donations.Delete))

	// Stock
	mux.HandleFunc("GET /stock", protect(deps.Stock.Get))

	// Employees
	mux.HandleFunc("POST /employees", protect(deps.Employees.Create))
	mux.HandleFunc("GET /employees", protect(deps.Employees.List))
	mux.HandleFunc("GET /employees/{code}", protect(deps.Employees.Get))
	mux.HandleFunc("PATCH /employees/{code}/password", protect(deps.Employees.ChangePassword))
	mux.HandleFunc("DELETE /employees/{code}", protect(deps.Employees.Delete))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
