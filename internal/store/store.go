// Package store defines the relational persistence contract for imported
// pesticide products and their dosage thresholds, with a PostgreSQL
// implementation for production and an in-memory implementation for
// tests and local development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no entity.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateName is returned when a create would violate the
// case-insensitive product name uniqueness guarantee.
var ErrDuplicateName = errors.New("store: duplicate product name")

// Product is a registered pesticide product. Name is unique
// case-insensitively; repeat imports update the existing row instead of
// inserting a duplicate.
type Product struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	ActiveSubstance    string    `json:"active_substance"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	ApprovalStatus     string    `json:"approval_status"`
	ApprovalDate       string    `json:"approval_date,omitempty"`
	ExpiryDate         string    `json:"expiry_date,omitempty"`
	Jurisdictions      []string  `json:"jurisdictions"`
	Restrictions       []string  `json:"restrictions"`
	HazardCodes        []string  `json:"hazard_codes"`
	SafetyRating       int       `json:"safety_rating"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProductUpdate carries the mutable approval metadata overwritten on a
// re-import. Dosage entries are deliberately absent: they are written
// once at product creation and never touched by updates.
type ProductUpdate struct {
	ActiveSubstance    string
	RegistrationNumber string
	ApprovalStatus     string
	ApprovalDate       string
	ExpiryDate         string
	Jurisdictions      []string
	Restrictions       []string
	HazardCodes        []string
	SafetyRating       int
}

// DosageEntry is one (product, crop, threshold) row.
type DosageEntry struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Crop      string    `json:"crop"`
	MRLValue  float64   `json:"mrl_value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract consumed by the import engine.
type Store interface {
	// FindProductByName looks up a product by case-insensitive name.
	// Returns ErrNotFound when absent.
	FindProductByName(ctx context.Context, name string) (*Product, error)

	// CreateProduct inserts a new product and returns it with its ID set.
	CreateProduct(ctx context.Context, p Product) (*Product, error)

	// UpdateProduct overwrites the approval metadata of an existing product.
	UpdateProduct(ctx context.Context, id uuid.UUID, fields ProductUpdate) error

	// CreateDosageEntry inserts one crop/threshold row for a product.
	CreateDosageEntry(ctx context.Context, productID uuid.UUID, crop string, mrlValue float64, unit string) error

	// CountProducts reports the number of stored products.
	CountProducts(ctx context.Context) (int64, error)

	// CountDosageEntries reports the number of stored dosage rows.
	CountDosageEntries(ctx context.Context) (int64, error)

	// DosageEntriesForProduct lists a product's dosage rows in insertion order.
	DosageEntriesForProduct(ctx context.Context, productID uuid.UUID) ([]DosageEntry, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// TxRunner is implemented by stores that can run a sequence of writes
// atomically. Callers that need all-or-nothing semantics (a product must
// not exist without its dosage rows) type-assert for it and fall back to
// plain sequential writes when the store cannot offer it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(Store) error) error
}
