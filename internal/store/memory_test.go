package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestMemory_FindByNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateProduct(ctx, Product{
		Name:            "Bordeaux Mixture Pro",
		ActiveSubstance: "Copper sulfate",
		ApprovalStatus:  "approved",
		SafetyRating:    3,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("CreateProduct did not assign an ID")
	}

	for _, name := range []string{"Bordeaux Mixture Pro", "bordeaux mixture pro", "BORDEAUX MIXTURE PRO"} {
		got, err := m.FindProductByName(ctx, name)
		if err != nil {
			t.Fatalf("FindProductByName(%q): %v", name, err)
		}
		if got.ID != created.ID {
			t.Errorf("FindProductByName(%q).ID = %s, want %s", name, got.ID, created.ID)
		}
	}

	if _, err := m.FindProductByName(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindProductByName(unknown) err = %v, want ErrNotFound", err)
	}
}

func TestMemory_CreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateProduct(ctx, Product{Name: "Bordeaux Mixture Pro", ApprovalStatus: "approved", SafetyRating: 3})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	for _, name := range []string{"Bordeaux Mixture Pro", "bordeaux mixture pro", "BORDEAUX MIXTURE PRO"} {
		if _, err := m.CreateProduct(ctx, Product{Name: name}); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("CreateProduct(%q) err = %v, want ErrDuplicateName", name, err)
		}
	}

	if n, _ := m.CountProducts(ctx); n != 1 {
		t.Errorf("products = %d, want 1", n)
	}
	got, err := m.FindProductByName(ctx, "bordeaux mixture pro")
	if err != nil {
		t.Fatalf("FindProductByName: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("lookup resolves to %s, want original %s", got.ID, created.ID)
	}
}

func TestMemory_UpdateLeavesDosagesAlone(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p, err := m.CreateProduct(ctx, Product{Name: "Product A", ApprovalStatus: "approved", SafetyRating: 3})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := m.CreateDosageEntry(ctx, p.ID, "grapes", 5.0, "mg/kg"); err != nil {
		t.Fatalf("CreateDosageEntry: %v", err)
	}
	if err := m.CreateDosageEntry(ctx, p.ID, "tomatoes", 1.0, "mg/kg"); err != nil {
		t.Fatalf("CreateDosageEntry: %v", err)
	}

	err = m.UpdateProduct(ctx, p.ID, ProductUpdate{
		ActiveSubstance: "Copper sulfate",
		ApprovalStatus:  "withdrawn",
		HazardCodes:     []string{"H300"},
		SafetyRating:    1,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	got, err := m.FindProductByName(ctx, "Product A")
	if err != nil {
		t.Fatalf("FindProductByName: %v", err)
	}
	if got.ApprovalStatus != "withdrawn" || got.SafetyRating != 1 {
		t.Errorf("update not applied: %+v", got)
	}

	entries, err := m.DosageEntriesForProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("DosageEntriesForProduct: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("dosage entries = %d, want 2", len(entries))
	}
	if entries[0].Crop != "grapes" || entries[0].MRLValue != 5.0 {
		t.Errorf("first entry mutated: %+v", entries[0])
	}
}

func TestMemory_UpdateMissingProduct(t *testing.T) {
	m := NewMemory()
	err := m.UpdateProduct(context.Background(), uuid.New(), ProductUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct err = %v, want ErrNotFound", err)
	}
}

func TestMemory_DosageEntryForMissingProduct(t *testing.T) {
	m := NewMemory()
	err := m.CreateDosageEntry(context.Background(), uuid.New(), "grapes", 1.0, "mg/kg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateDosageEntry err = %v, want ErrNotFound", err)
	}
}

func TestMemory_Counts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a, _ := m.CreateProduct(ctx, Product{Name: "A", ApprovalStatus: "approved"})
	b, _ := m.CreateProduct(ctx, Product{Name: "B", ApprovalStatus: "approved"})
	_ = m.CreateDosageEntry(ctx, a.ID, "grapes", 5.0, "mg/kg")
	_ = m.CreateDosageEntry(ctx, b.ID, "wheat", 0.5, "mg/kg")
	_ = m.CreateDosageEntry(ctx, b.ID, "corn", 0.3, "mg/kg")

	if n, _ := m.CountProducts(ctx); n != 2 {
		t.Errorf("CountProducts = %d, want 2", n)
	}
	if n, _ := m.CountDosageEntries(ctx); n != 3 {
		t.Errorf("CountDosageEntries = %d, want 3", n)
	}
}

// Returned products are copies; mutating them must not corrupt the store.
func TestMemory_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p, _ := m.CreateProduct(ctx, Product{Name: "A", Jurisdictions: []string{"DE"}, ApprovalStatus: "approved"})
	p.Jurisdictions[0] = "XX"
	p.Name = "mutated"

	got, err := m.FindProductByName(ctx, "A")
	if err != nil {
		t.Fatalf("FindProductByName: %v", err)
	}
	if got.Jurisdictions[0] != "DE" || got.Name != "A" {
		t.Errorf("stored product mutated through returned copy: %+v", got)
	}
}
