package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the pgx surface the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx, so the same store methods run inside or
// outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	db   Querier
}

// NewPostgres creates a Postgres store backed by pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

// WithTx returns a store view bound to tx. Ping still uses the pool.
func (s *Postgres) WithTx(tx pgx.Tx) *Postgres {
	return &Postgres{pool: s.pool, db: tx}
}

// RunInTx executes fn inside a single transaction. fn receives a store
// view bound to that transaction; any error rolls everything back.
func (s *Postgres) RunInTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(s.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// uniqueViolation is the SQLSTATE code Postgres reports when an insert
// hits products_name_lower_idx.
const uniqueViolation = "23505"

const productColumns = `id, name, active_substance, registration_number, approval_status,
	approval_date, expiry_date, jurisdictions, restrictions, hazard_codes,
	safety_rating, created_at, updated_at`

// FindProductByName looks up a product by case-insensitive name match.
func (s *Postgres) FindProductByName(ctx context.Context, name string) (*Product, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE LOWER(name) = LOWER($1)`,
		name,
	)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %q: %w", name, err)
	}
	return p, nil
}

// CreateProduct inserts a new product row.
func (s *Postgres) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO products (
			id, name, active_substance, registration_number, approval_status,
			approval_date, expiry_date, jurisdictions, restrictions, hazard_codes,
			safety_rating
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		p.ID, p.Name, p.ActiveSubstance, toPgText(p.RegistrationNumber),
		p.ApprovalStatus, toPgText(p.ApprovalDate), toPgText(p.ExpiryDate),
		p.Jurisdictions, p.Restrictions, p.HazardCodes, p.SafetyRating,
	)

	created, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("create product %q: %w", p.Name, ErrDuplicateName)
		}
		return nil, fmt.Errorf("create product %q: %w", p.Name, err)
	}
	return created, nil
}

// UpdateProduct overwrites a product's approval metadata. Dosage rows are
// not touched.
func (s *Postgres) UpdateProduct(ctx context.Context, id uuid.UUID, fields ProductUpdate) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE products
		SET active_substance = $2,
			registration_number = $3,
			approval_status = $4,
			approval_date = $5,
			expiry_date = $6,
			jurisdictions = $7,
			restrictions = $8,
			hazard_codes = $9,
			safety_rating = $10,
			updated_at = NOW()
		WHERE id = $1`,
		id, fields.ActiveSubstance, toPgText(fields.RegistrationNumber),
		fields.ApprovalStatus, toPgText(fields.ApprovalDate), toPgText(fields.ExpiryDate),
		fields.Jurisdictions, fields.Restrictions, fields.HazardCodes,
		fields.SafetyRating,
	)
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDosageEntry inserts one crop/threshold row for a product.
func (s *Postgres) CreateDosageEntry(ctx context.Context, productID uuid.UUID, crop string, mrlValue float64, unit string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO dosage_entries (id, product_id, crop, mrl_value, unit)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), productID, crop, mrlValue, unit,
	)
	if err != nil {
		return fmt.Errorf("create dosage entry for %s/%s: %w", productID, crop, err)
	}
	return nil
}

// CountProducts reports the number of stored products.
func (s *Postgres) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// CountDosageEntries reports the number of stored dosage rows.
func (s *Postgres) CountDosageEntries(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM dosage_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dosage entries: %w", err)
	}
	return n, nil
}

// DosageEntriesForProduct lists a product's dosage rows in insertion order.
func (s *Postgres) DosageEntriesForProduct(ctx context.Context, productID uuid.UUID) ([]DosageEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, crop, mrl_value, unit, created_at
		FROM dosage_entries
		WHERE product_id = $1
		ORDER BY created_at, id`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dosage entries for %s: %w", productID, err)
	}
	defer rows.Close()

	var entries []DosageEntry
	for rows.Next() {
		var e DosageEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Crop, &e.MRLValue, &e.Unit, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dosage entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dosage entries for %s: %w", productID, err)
	}
	return entries, nil
}

// Ping verifies database connectivity.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// scanProduct reads one product row, mapping nullable text columns back
// to empty strings.
func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p                          Product
		registration, appDate, exp pgtype.Text
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.ActiveSubstance, &registration, &p.ApprovalStatus,
		&appDate, &exp, &p.Jurisdictions, &p.Restrictions, &p.HazardCodes,
		&p.SafetyRating, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.RegistrationNumber = registration.String
	p.ApprovalDate = appDate.String
	p.ExpiryDate = exp.String
	return &p, nil
}

// toPgText maps empty strings to NULL, matching the nullable columns.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
