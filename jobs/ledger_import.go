package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bistro-suite/bistro/internal/billing"
	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/observability"
)

const (
	importSource       = "settlement"
	importCategoryName = "Mesas Finalizadas"
	sweepBatchSize     = 100
)

// SettlementSource reads settlements pending import. billing.Repository
// satisfies it.
type SettlementSource interface {
	GetSettlement(ctx context.Context, id int64) (*billing.Settlement, error)
	ListUnimported(ctx context.Context, limit int) ([]billing.Settlement, error)
	MarkImported(ctx context.Context, id int64, at time.Time) error
}

// CategoryResolver resolves the target revenue category.
type CategoryResolver interface {
	FindOrCreate(ctx context.Context, name string, kind categories.Kind) (int64, error)
}

// LedgerSink writes imported entries.
type LedgerSink interface {
	Import(ctx context.Context, in ledger.ImportInput) (int64, error)
}

// Importer moves finalized settlements into the ledger exactly once.
type Importer struct {
	settlements SettlementSource
	categories  CategoryResolver
	ledger      LedgerSink
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewImporter constructs an Importer. Metrics may be nil.
func NewImporter(settlements SettlementSource, cats CategoryResolver, sink LedgerSink, logger *slog.Logger, metrics *observability.Metrics) *Importer {
	return &Importer{settlements: settlements, categories: cats, ledger: sink, logger: logger, metrics: metrics}
}

// HandleSettlementImport processes TaskSettlementImport tasks.
func (i *Importer) HandleSettlementImport(ctx context.Context, t *asynq.Task) error {
	var payload SettlementImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	finish := i.metrics.TrackJob("settlement_import")
	return finish(i.ImportSettlement(ctx, payload.SettlementID))
}

// ImportSettlement writes one settlement into the ledger. Settlements already
// imported, and ledger entries whose import reference already exists, are
// skipped without error so retries stay harmless.
func (i *Importer) ImportSettlement(ctx context.Context, settlementID int64) error {
	s, err := i.settlements.GetSettlement(ctx, settlementID)
	if err != nil {
		if errors.Is(err, billing.ErrSettlementNotFound) {
			i.logger.Warn("settlement vanished before import", slog.Int64("settlement_id", settlementID))
			return nil
		}
		return fmt.Errorf("load settlement %d: %w", settlementID, err)
	}
	if s.ImportedAt != nil {
		return nil
	}

	categoryID, err := i.categories.FindOrCreate(ctx, importCategoryName, categories.KindRevenue)
	if err != nil {
		return fmt.Errorf("resolve import category: %w", err)
	}

	_, err = i.ledger.Import(ctx, ledger.ImportInput{
		EntryInput: ledger.EntryInput{
			Kind:         categories.KindRevenue,
			Counterparty: fmt.Sprintf("Mesa %d", s.TableNumber),
			Description:  fmt.Sprintf("Mesa %d finalizada", s.TableNumber),
			CategoryID:   categoryID,
			Date:         s.SettledAt,
			Amount:       s.FinalTotal,
		},
		Source: importSource,
		Ref:    s.Ref,
	})
	switch {
	case errors.Is(err, ledger.ErrDuplicateImport):
		i.logger.Info("settlement already in ledger", slog.String("ref", s.Ref))
	case err != nil:
		return fmt.Errorf("import settlement %s: %w", s.Ref, err)
	}

	if err := i.settlements.MarkImported(ctx, s.ID, time.Now().UTC()); err != nil &&
		!errors.Is(err, billing.ErrSettlementNotFound) {
		return fmt.Errorf("mark settlement %d imported: %w", s.ID, err)
	}
	i.logger.Info("settlement imported into ledger",
		slog.Int64("settlement_id", s.ID), slog.String("ref", s.Ref))
	return nil
}

// HandleSettlementSweep imports every settlement still missing from the
// ledger. Failures are logged per settlement and do not abort the batch.
func (i *Importer) HandleSettlementSweep(ctx context.Context, _ *asynq.Task) error {
	finish := i.metrics.TrackJob("settlement_sweep")
	return finish(i.settlementSweep(ctx))
}

func (i *Importer) settlementSweep(ctx context.Context) error {
	pending, err := i.settlements.ListUnimported(ctx, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("list unimported settlements: %w", err)
	}
	var failed int
	for _, s := range pending {
		if err := i.ImportSettlement(ctx, s.ID); err != nil {
			failed++
			i.logger.Error("sweep import failed",
				slog.Int64("settlement_id", s.ID), slog.Any("error", err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("settlement sweep: %d of %d imports failed", failed, len(pending))
	}
	return nil
}
