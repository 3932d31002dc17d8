package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-memory Store. It backs tests and the
// STORE_DRIVER=memory development mode, and gives the import engine the
// same case-insensitive name semantics as the Postgres schema.
type Memory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*Product
	byName   map[string]uuid.UUID // lower-cased name -> id
	dosages  map[uuid.UUID][]DosageEntry
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		products: make(map[uuid.UUID]*Product),
		byName:   make(map[string]uuid.UUID),
		dosages:  make(map[uuid.UUID][]DosageEntry),
		now:      time.Now,
	}
}

// FindProductByName looks up a product by case-insensitive name.
func (m *Memory) FindProductByName(_ context.Context, name string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProduct(m.products[id]), nil
}

// CreateProduct inserts a new product. Names are unique
// case-insensitively, matching the products_name_lower_idx constraint.
func (m *Memory) CreateProduct(_ context.Context, p Product) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(p.Name)
	if _, exists := m.byName[key]; exists {
		return nil, fmt.Errorf("create product %q: %w", p.Name, ErrDuplicateName)
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := m.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	m.products[p.ID] = copyProduct(&p)
	m.byName[key] = p.ID
	return copyProduct(&p), nil
}

// UpdateProduct overwrites approval metadata on an existing product.
// Dosage rows are left untouched.
func (m *Memory) UpdateProduct(_ context.Context, id uuid.UUID, fields ProductUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}

	p.ActiveSubstance = fields.ActiveSubstance
	p.RegistrationNumber = fields.RegistrationNumber
	p.ApprovalStatus = fields.ApprovalStatus
	p.ApprovalDate = fields.ApprovalDate
	p.ExpiryDate = fields.ExpiryDate
	p.Jurisdictions = append([]string(nil), fields.Jurisdictions...)
	p.Restrictions = append([]string(nil), fields.Restrictions...)
	p.HazardCodes = append([]string(nil), fields.HazardCodes...)
	p.SafetyRating = fields.SafetyRating
	p.UpdatedAt = m.now()
	return nil
}

// CreateDosageEntry appends one crop/threshold row for a product.
func (m *Memory) CreateDosageEntry(_ context.Context, productID uuid.UUID, crop string, mrlValue float64, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[productID]; !ok {
		return ErrNotFound
	}

	m.dosages[productID] = append(m.dosages[productID], DosageEntry{
		ID:        uuid.New(),
		ProductID: productID,
		Crop:      crop,
		MRLValue:  mrlValue,
		Unit:      unit,
		CreatedAt: m.now(),
	})
	return nil
}

// CountProducts reports the number of stored products.
func (m *Memory) CountProducts(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.products)), nil
}

// CountDosageEntries reports the number of stored dosage rows.
func (m *Memory) CountDosageEntries(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, entries := range m.dosages {
		n += int64(len(entries))
	}
	return n, nil
}

// DosageEntriesForProduct lists a product's dosage rows in insertion order.
func (m *Memory) DosageEntriesForProduct(_ context.Context, productID uuid.UUID) ([]DosageEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.dosages[productID]
	out := make([]DosageEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Ping always succeeds for the in-memory store.
func (m *Memory) Ping(context.Context) error { return nil }

// copyProduct deep-copies a product so callers cannot mutate stored state.
func copyProduct(p *Product) *Product {
	cp := *p
	cp.Jurisdictions = append([]string(nil), p.Jurisdictions...)
	cp.Restrictions = append([]string(nil), p.Restrictions...)
	cp.HazardCodes = append([]string(nil), p.HazardCodes...)
	return &cp
}
