package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bloodbank/internal/domain"
)

type donorRepository struct {
	DB *sql.DB
}

// NewDonorRepository returns a DonorRepository backed by Postgres. The donor
// row embeds the donation history as a jsonb column; a version column makes
// history updates a compare-and-swap so concurrent mutations of the same
// donor cannot be lost.
func NewDonorRepository(db *sql.DB) domain.DonorRepository {
	return &donorRepository{DB: db}
}

func (r *donorRepository) Create(ctx context.Context, d *domain.Donor) error {
	history, err := marshalHistory(d.DonationHistory)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO donors (name, cpf, birth_date, sex, address, phone, donation_history, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		d.Name, d.CPF, d.BirthDate, d.Sex, d.Address, d.Phone, history, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateCPF
		}
		return err
	}
	d.Version = 1
	return nil
}

const donorColumns = `id, name, cpf, birth_date, sex, address, phone, donation_history, version, created_at, updated_at`

func (r *donorRepository) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	return r.scanDonor(r.DB.QueryRowContext(ctx, query, id))
}

func (r *donorRepository) GetByCPF(ctx context.Context, cpf string) (*domain.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE cpf = $1`
	return r.scanDonor(r.DB.QueryRowContext(ctx, query, cpf))
}

func (r *donorRepository) List(ctx context.Context) ([]*domain.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donors []*domain.Donor
	for rows.Next() {
		d, err := r.scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

func (r *donorRepository) Update(ctx context.Context, d *domain.Donor) error {
	query := `
		UPDATE donors
		SET name = $1, sex = $2, address = $3, phone = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := r.DB.ExecContext(ctx, query, d.Name, d.Sex, d.Address, d.Phone, d.UpdatedAt, d.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDonorNotFound
	}
	return nil
}

// UpdateHistory swaps in a new donation history only if the donor's version
// still matches expectedVersion. A zero-row update against an existing donor
// means someone else got there first.
func (r *donorRepository) UpdateHistory(ctx context.Context, donorID string, history []domain.DonationRecord, expectedVersion int) error {
	payload, err := marshalHistory(history)
	if err != nil {
		return err
	}
	query := `
		UPDATE donors
		SET donation_history = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
	`
	res, err := r.DB.ExecContext(ctx, query, payload, donorID, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM donors WHERE id = $1)`, donorID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrDonorNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *donorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM donors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDonorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *donorRepository) scanDonor(row rowScanner) (*domain.Donor, error) {
	d := &domain.Donor{}
	var history []byte
	err := row.Scan(&d.ID, &d.Name, &d.CPF, &d.BirthDate, &d.Sex, &d.Address, &d.Phone, &history, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &d.DonationHistory); err != nil {
			return nil, fmt.Errorf("failed to decode donation history: %w", err)
		}
	}
	return d, nil
}

func marshalHistory(history []domain.DonationRecord) ([]byte, error) {
	if history == nil {
		history = []domain.DonationRecord{}
	}
	payload, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode donation history: %w", err)
	}
	return payload, nil
}
