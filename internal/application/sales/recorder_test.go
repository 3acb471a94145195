package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
)

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]sales.Sale, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context) ([]sales.Sale, error) {
	args := m.Called(ctx)
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) ExistsByProductAndPlatform(ctx context.Context, productID uuid.UUID, code integration.PlatformCode) (bool, error) {
	args := m.Called(ctx, productID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSaleRepository) FindUnsynced(ctx context.Context) ([]sales.Sale, error) {
	args := m.Called(ctx)
	return args.Get(0).([]sales.Sale), args.Error(1)
}

// MockAccountingSink is a mock implementation of sales.AccountingSink
type MockAccountingSink struct {
	mock.Mock
}

func (m *MockAccountingSink) AppendSaleRow(ctx context.Context, sale *sales.Sale, productTitle string) (string, error) {
	args := m.Called(ctx, sale, productTitle)
	return args.String(0), args.Error(1)
}

func newTestSale(t *testing.T) *sales.Sale {
	t.Helper()
	sale, err := sales.NewSale(uuid.New(), integration.PlatformCodeVinted, decimal.NewFromFloat(45.00), time.Now())
	require.NoError(t, err)
	return sale
}

func TestRecorder_RecordSale(t *testing.T) {
	t.Run("persists and forwards", func(t *testing.T) {
		repo := new(MockSaleRepository)
		sink := new(MockAccountingSink)
		recorder := NewRecorder(repo, sink, nil)

		sale := newTestSale(t)
		repo.On("Save", mock.Anything, sale).Return(nil)
		sink.On("AppendSaleRow", mock.Anything, sale, "Vintage denim jacket").Return("Sales!A42", nil)

		err := recorder.RecordSale(context.Background(), sale, "Vintage denim jacket")
		require.NoError(t, err)

		assert.True(t, sale.SyncedToAccounting)
		assert.Equal(t, "Sales!A42", sale.AccountingRowRef)
		repo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("forward failure keeps the sale unsynced", func(t *testing.T) {
		repo := new(MockSaleRepository)
		sink := new(MockAccountingSink)
		recorder := NewRecorder(repo, sink, nil)

		sale := newTestSale(t)
		repo.On("Save", mock.Anything, sale).Return(nil)
		sink.On("AppendSaleRow", mock.Anything, sale, mock.Anything).Return("", assert.AnError)

		err := recorder.RecordSale(context.Background(), sale, "Jacket")
		require.NoError(t, err)

		assert.False(t, sale.SyncedToAccounting)
		repo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("store failure is fatal", func(t *testing.T) {
		repo := new(MockSaleRepository)
		sink := new(MockAccountingSink)
		recorder := NewRecorder(repo, sink, nil)

		sale := newTestSale(t)
		repo.On("Save", mock.Anything, sale).Return(assert.AnError)

		err := recorder.RecordSale(context.Background(), sale, "Jacket")
		assert.Error(t, err)
		sink.AssertNotCalled(t, "AppendSaleRow", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nil sink stores unsynced", func(t *testing.T) {
		repo := new(MockSaleRepository)
		recorder := NewRecorder(repo, nil, nil)

		sale := newTestSale(t)
		repo.On("Save", mock.Anything, sale).Return(nil)

		err := recorder.RecordSale(context.Background(), sale, "Jacket")
		require.NoError(t, err)
		assert.False(t, sale.SyncedToAccounting)
	})
}

func TestRecorder_RetryUnsynced(t *testing.T) {
	t.Run("forwards pending sales and counts successes", func(t *testing.T) {
		repo := new(MockSaleRepository)
		sink := new(MockAccountingSink)
		recorder := NewRecorder(repo, sink, nil)

		first := newTestSale(t)
		second := newTestSale(t)

		repo.On("FindUnsynced", mock.Anything).Return([]sales.Sale{*first, *second}, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*sales.Sale")).Return(nil)
		sink.On("AppendSaleRow", mock.Anything, mock.AnythingOfType("*sales.Sale"), "").
			Return("Sales!A7", nil).Once()
		sink.On("AppendSaleRow", mock.Anything, mock.AnythingOfType("*sales.Sale"), "").
			Return("", assert.AnError).Once()

		synced, err := recorder.RetryUnsynced(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, synced)
		repo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("nil sink is a no-op", func(t *testing.T) {
		repo := new(MockSaleRepository)
		recorder := NewRecorder(repo, nil, nil)

		synced, err := recorder.RetryUnsynced(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, synced)
		repo.AssertNotCalled(t, "FindUnsynced", mock.Anything)
	})
}
