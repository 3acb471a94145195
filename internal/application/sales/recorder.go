package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/sales"
)

// Recorder persists sale records and forwards them to the accounting sink.
// Persistence is the source of truth: a sale that cannot be stored is an
// error, a sale that cannot be forwarded is stored unsynced and retried by
// RetryUnsynced.
type Recorder struct {
	sales  sales.SaleRepository
	sink   sales.AccountingSink
	logger *zap.Logger
}

// NewRecorder creates a new Recorder. The sink may be nil when no accounting
// integration is configured; sales are then stored unsynced.
func NewRecorder(saleRepo sales.SaleRepository, sink sales.AccountingSink, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		sales:  saleRepo,
		sink:   sink,
		logger: logger,
	}
}

// RecordSale stores the sale and makes one forward attempt to the
// accounting sink. Only the store can fail the call.
func (r *Recorder) RecordSale(ctx context.Context, sale *sales.Sale, productTitle string) error {
	if err := r.sales.Save(ctx, sale); err != nil {
		return fmt.Errorf("failed to persist sale: %w", err)
	}

	if r.sink == nil {
		return nil
	}

	rowRef, err := r.sink.AppendSaleRow(ctx, sale, productTitle)
	if err != nil {
		r.logger.Warn("accounting forward failed, sale kept for retry",
			zap.String("sale_id", sale.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	sale.MarkAccountingSynced(rowRef)
	if err := r.sales.Save(ctx, sale); err != nil {
		return fmt.Errorf("failed to persist sale: %w", err)
	}

	r.logger.Info("sale forwarded to accounting",
		zap.String("sale_id", sale.ID.String()),
		zap.String("row_ref", rowRef),
	)
	return nil
}

// RetryUnsynced re-forwards every stored sale that has not reached the
// accounting sink yet. Returns the number of sales synced this run.
func (r *Recorder) RetryUnsynced(ctx context.Context) (int, error) {
	if r.sink == nil {
		return 0, nil
	}

	unsynced, err := r.sales.FindUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load unsynced sales: %w", err)
	}

	synced := 0
	for i := range unsynced {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		sale := unsynced[i]

		rowRef, err := r.sink.AppendSaleRow(ctx, &sale, "")
		if err != nil {
			r.logger.Warn("accounting forward failed",
				zap.String("sale_id", sale.ID.String()),
				zap.Error(err),
			)
			continue
		}

		sale.MarkAccountingSynced(rowRef)
		if err := r.sales.Save(ctx, &sale); err != nil {
			return synced, fmt.Errorf("failed to persist sale: %w", err)
		}
		synced++
	}

	return synced, nil
}

// GetSale returns one sale by ID
func (r *Recorder) GetSale(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	return r.sales.FindByID(ctx, id)
}

// ListSales returns all recorded sales, newest first
func (r *Recorder) ListSales(ctx context.Context) ([]sales.Sale, error) {
	return r.sales.FindAll(ctx)
}

// ListSalesByProduct returns all sales for one product
func (r *Recorder) ListSalesByProduct(ctx context.Context, productID uuid.UUID) ([]sales.Sale, error) {
	return r.sales.FindByProduct(ctx, productID)
}
