// Package importer reconciles canonical pesticide records against the
// relational store: existing products are updated in place, new products
// are created together with their dosage rows, and every run finishes
// with a summary report no matter how many records fail.
package importer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/linkln33/garden-buddy-sub000/internal/logging"
	"github.com/linkln33/garden-buddy-sub000/internal/pesticide"
	"github.com/linkln33/garden-buddy-sub000/internal/store"
)

// DefaultWorkers is the number of reconciliation shards when the
// configuration does not say otherwise.
const DefaultWorkers = 4

// Report summarizes one import run.
type Report struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors,omitempty"`

	// Parser-side accounting, carried so callers see the whole batch.
	RowsSeen    int `json:"rowsSeen"`
	RowsSkipped int `json:"rowsSkipped"`
}

// Empty reports whether the run had nothing to import.
func (r Report) Empty() bool {
	return r.SuccessCount == 0 && r.ErrorCount == 0
}

// Engine imports canonical records into a store.
//
// Reconciling a record is a check-then-act sequence (look up by name,
// then create or update), so two records naming the same product race if
// they run concurrently. The engine shards records across workers by an
// FNV-1a hash of the lower-cased product name: same-name records always
// land on the same shard and execute in input order, while distinct
// names proceed in parallel.
type Engine struct {
	store   store.Store
	workers int
}

// NewEngine creates an import engine over st with the given number of
// worker shards. workers < 1 falls back to DefaultWorkers.
func NewEngine(st store.Store, workers int) *Engine {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Engine{store: st, workers: workers}
}

// Import reconciles records into the store and returns the run report.
// Per-record store failures are counted and logged, never fatal: a batch
// always runs to completion. Cancelling ctx stops submission of further
// records; records already handed to a shard finish their writes so no
// product is left without its dosage rows.
func (e *Engine) Import(ctx context.Context, records []pesticide.Record) Report {
	logger := logging.FromContext(ctx)

	var (
		mu     sync.Mutex
		report Report
	)

	shards := make([]chan pesticide.Record, e.workers)
	for i := range shards {
		shards[i] = make(chan pesticide.Record)
	}

	// Workers drain their shard even after cancellation; the feeder is
	// the only place that observes ctx.
	var g errgroup.Group
	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			for rec := range shard {
				err := e.reconcile(context.WithoutCancel(ctx), rec)

				mu.Lock()
				if err != nil {
					report.ErrorCount++
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", rec.ProductName, err))
				} else {
					report.SuccessCount++
				}
				mu.Unlock()

				if err != nil {
					logger.Error("record import failed",
						"product", rec.ProductName,
						"error", err,
					)
				}
			}
			return nil
		})
	}

feed:
	for i, rec := range records {
		if ctx.Err() != nil {
			logger.Warn("import cancelled, stopping submission",
				"submitted", i,
				"remaining", len(records)-i,
			)
			break feed
		}
		select {
		case <-ctx.Done():
			logger.Warn("import cancelled, stopping submission",
				"submitted", i,
				"remaining", len(records)-i,
			)
			break feed
		case shards[e.shardFor(rec.ProductName)] <- rec:
		}
	}
	for _, shard := range shards {
		close(shard)
	}
	_ = g.Wait()

	return report
}

// shardFor maps a product name to its worker shard.
func (e *Engine) shardFor(productName string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(productName))))
	return int(h.Sum32() % uint32(e.workers))
}

// reconcile applies one record: update the existing product, or create
// it together with its dosage rows. A create that hits the name
// uniqueness guarantee lost a race with a concurrent run, so the record
// falls back to an update of the now-existing product.
func (e *Engine) reconcile(ctx context.Context, rec pesticide.Record) error {
	existing, err := e.store.FindProductByName(ctx, rec.ProductName)
	switch {
	case err == nil:
		return e.updateExisting(ctx, existing, rec)
	case errors.Is(err, store.ErrNotFound):
		if err := e.createNew(ctx, rec); !errors.Is(err, store.ErrDuplicateName) {
			return err
		}
		existing, err = e.store.FindProductByName(ctx, rec.ProductName)
		if err != nil {
			return fmt.Errorf("lookup after create race: %w", err)
		}
		return e.updateExisting(ctx, existing, rec)
	default:
		return fmt.Errorf("lookup: %w", err)
	}
}

// updateExisting overwrites the approval metadata of a known product.
// Existing dosage rows are deliberately left alone: thresholds were
// recorded at first import and re-imports must not duplicate them.
func (e *Engine) updateExisting(ctx context.Context, existing *store.Product, rec pesticide.Record) error {
	err := e.store.UpdateProduct(ctx, existing.ID, store.ProductUpdate{
		ActiveSubstance:    rec.ActiveSubstance,
		RegistrationNumber: rec.RegistrationNumber,
		ApprovalStatus:     string(rec.Status),
		ApprovalDate:       rec.ApprovalDate,
		ExpiryDate:         rec.ExpiryDate,
		Jurisdictions:      rec.Jurisdictions,
		Restrictions:       rec.Restrictions,
		HazardCodes:        rec.HazardCodes,
		SafetyRating:       pesticide.SafetyRating(rec.HazardCodes),
	})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// createNew inserts a product plus one dosage row per MRL entry. When
// the store can run transactions the whole insert is atomic, so a failed
// dosage row never leaves a product behind without its thresholds.
func (e *Engine) createNew(ctx context.Context, rec pesticide.Record) error {
	if txr, ok := e.store.(store.TxRunner); ok {
		return txr.RunInTx(ctx, func(st store.Store) error {
			return insertProduct(ctx, st, rec)
		})
	}
	return insertProduct(ctx, e.store, rec)
}

func insertProduct(ctx context.Context, st store.Store, rec pesticide.Record) error {
	created, err := st.CreateProduct(ctx, store.Product{
		Name:               rec.ProductName,
		ActiveSubstance:    rec.ActiveSubstance,
		RegistrationNumber: rec.RegistrationNumber,
		ApprovalStatus:     string(rec.Status),
		ApprovalDate:       rec.ApprovalDate,
		ExpiryDate:         rec.ExpiryDate,
		Jurisdictions:      rec.Jurisdictions,
		Restrictions:       rec.Restrictions,
		HazardCodes:        rec.HazardCodes,
		SafetyRating:       pesticide.SafetyRating(rec.HazardCodes),
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	for _, mrl := range rec.MRLValues {
		if err := st.CreateDosageEntry(ctx, created.ID, mrl.Crop, mrl.Value, mrl.Unit); err != nil {
			return fmt.Errorf("dosage entry %s: %w", mrl.Crop, err)
		}
	}
	return nil
}
