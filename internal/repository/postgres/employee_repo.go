package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bloodbank/internal/domain"
)

type employeeRepository struct {
	DB *sql.DB
}

// NewEmployeeRepository returns an EmployeeRepository backed by Postgres.
func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{DB: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (name, email, employee_code, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Name, e.Email, e.EmployeeCode, e.PasswordHash, e.IsAdmin, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmployeeCode
		}
		return err
	}
	return nil
}

const employeeColumns = `id, name, email, employee_code, password_hash, is_admin, created_at, updated_at`

func (r *employeeRepository) GetByCode(ctx context.Context, code string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_code = $1`
	return scanEmployee(r.DB.QueryRowContext(ctx, query, code))
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	return scanEmployee(r.DB.QueryRowContext(ctx, query, id))
}

func (r *employeeRepository) List(ctx context.Context) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepository) UpdatePassword(ctx context.Context, code, passwordHash string) error {
	query := `UPDATE employees SET password_hash = $1, updated_at = now() WHERE employee_code = $2`
	res, err := r.DB.ExecContext(ctx, query, passwordHash, code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, code string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM employees WHERE employee_code = $1`, code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	e := &domain.Employee{}
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.EmployeeCode, &e.PasswordHash, &e.IsAdmin, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
