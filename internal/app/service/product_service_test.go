package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/memory"
)

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Bool(1), args.Error(2)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(repo domain.ProductRepository, gen domain.IDGenerator) *service.ProductService {
	return service.NewProductService(
		domain.NewCatalog(gen),
		repo,
		tracenoop.NewTracerProvider().Tracer("test"),
		noop.NewMeterProvider().Meter("test"),
		discardLogger(),
	)
}

func newMemoryService() (*service.ProductService, *memory.ProductRepository) {
	repo := memory.NewProductRepository(tracenoop.NewTracerProvider().Tracer("test"), discardLogger())
	return newService(repo, nil), repo
}

func widget() domain.Product {
	return domain.Product{
		Name:          "Widget",
		Price:         decimal.RequireFromString("10.99"),
		StockQuantity: 100,
	}
}

func TestProductService_CreateProduct_AppliesPolicyAndPersists(t *testing.T) {
	mockRepo := new(MockProductRepository)
	fixed := uuid.New()
	svc := newService(mockRepo, func() uuid.UUID { return fixed })

	want := widget()
	want.ID = fixed
	mockRepo.On("Save", mock.Anything, want).Return(want, nil).Once()

	got, err := svc.CreateProduct(context.Background(), widget())

	require.NoError(t, err)
	assert.Equal(t, fixed, got.ID)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_RepositoryFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.Product{}, errors.New("database error")).Once()

	_, err := svc.CreateProduct(context.Background(), widget())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID_DelegatesToRepository(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	p := widget()
	p.ID = uuid.New()
	missing := uuid.New()

	mockRepo.On("FindByID", mock.Anything, p.ID).Return(p, true, nil).Once()
	mockRepo.On("FindByID", mock.Anything, missing).Return(domain.Product{}, false, nil).Once()

	got, found, err := svc.GetProductByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, p, got)

	_, found, err = svc.GetProductByID(context.Background(), missing)
	require.NoError(t, err)
	assert.False(t, found)

	mockRepo.AssertExpectations(t)
}

func TestProductService_GetAllProducts_DelegatesToRepository(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	p := widget()
	p.ID = uuid.New()
	mockRepo.On("FindAll", mock.Anything).Return([]domain.Product{p}, nil).Once()

	got, err := svc.GetAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Product{p}, got)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct_ExistingForcesPathID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	id := uuid.New()
	payload := widget()
	payload.ID = uuid.New()

	want := payload
	want.ID = id

	mockRepo.On("ExistsByID", mock.Anything, id).Return(true, nil).Once()
	mockRepo.On("Save", mock.Anything, want).Return(want, nil).Once()

	got, found, err := svc.UpdateProduct(context.Background(), id, payload)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got.ID)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct_MissingSkipsSave(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	id := uuid.New()
	mockRepo.On("ExistsByID", mock.Anything, id).Return(false, nil).Once()

	got, found, err := svc.UpdateProduct(context.Background(), id, widget())

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, domain.Product{}, got)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct_ExistsFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	id := uuid.New()
	mockRepo.On("ExistsByID", mock.Anything, id).Return(false, errors.New("connection reset")).Once()

	_, found, err := svc.UpdateProduct(context.Background(), id, widget())

	assert.Error(t, err)
	assert.False(t, found)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_DeleteProduct_DelegatesToRepository(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newService(mockRepo, nil)

	id := uuid.New()
	mockRepo.On("DeleteByID", mock.Anything, id).Return(true, nil).Once()
	mockRepo.On("DeleteByID", mock.Anything, id).Return(false, nil).Once()

	deleted, err := svc.DeleteProduct(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteProduct(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)

	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateScenario(t *testing.T) {
	svc, repo := newMemoryService()
	ctx := context.Background()

	existing, err := repo.FindAll(ctx)
	require.NoError(t, err)

	got, err := svc.CreateProduct(ctx, widget())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, got.ID)
	for _, p := range existing {
		assert.NotEqual(t, p.ID, got.ID)
	}
	assert.Equal(t, "Widget", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("10.99")))
	assert.Equal(t, 100, got.StockQuantity)
}

func TestProductService_CreateKeepsSuppliedID(t *testing.T) {
	svc, _ := newMemoryService()
	ctx := context.Background()

	in := widget()
	in.ID = uuid.New()

	got, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)

	stored, found, err := svc.GetProductByID(ctx, in.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, in.Equal(stored))
}

func TestProductService_UpdateNotFoundScenario(t *testing.T) {
	svc, repo := newMemoryService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, widget())
	require.NoError(t, err)
	before, err := repo.FindAll(ctx)
	require.NoError(t, err)

	x := uuid.New()
	_, found, err := svc.UpdateProduct(ctx, x, widget())
	require.NoError(t, err)
	assert.False(t, found)

	after, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)

	exists, err := repo.ExistsByID(ctx, x)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProductService_UpdateReplacesWholeRecord(t *testing.T) {
	svc, _ := newMemoryService()
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, domain.Product{
		Name:          "Widget",
		Description:   "old description",
		Price:         decimal.RequireFromString("10.99"),
		StockQuantity: 100,
	})
	require.NoError(t, err)

	replacement := domain.Product{
		ID:    uuid.New(),
		Name:  "Widget v2",
		Price: decimal.RequireFromString("12.50"),
	}
	updated, found, err := svc.UpdateProduct(ctx, created.ID, replacement)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, updated.ID)

	stored, found, err := svc.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Widget v2", stored.Name)
	assert.Empty(t, stored.Description)
	assert.Zero(t, stored.StockQuantity)

	all, err := svc.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductService_LifecycleScenario(t *testing.T) {
	svc, _ := newMemoryService()
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, widget())
	require.NoError(t, err)
	y := created.ID

	got, found, err := svc.GetProductByID(ctx, y)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, created.Equal(got))

	deleted, err := svc.DeleteProduct(ctx, y)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, found, err = svc.GetProductByID(ctx, y)
	require.NoError(t, err)
	assert.False(t, found)

	deleted, err = svc.DeleteProduct(ctx, y)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProductService_RecordsOperationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	repo := memory.NewProductRepository(tracenoop.NewTracerProvider().Tracer("test"), discardLogger())
	svc := service.NewProductService(
		domain.NewCatalog(nil),
		repo,
		tracenoop.NewTracerProvider().Tracer("test"),
		mp.Meter("test"),
		discardLogger(),
	)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, widget())
	require.NoError(t, err)
	_, _, err = svc.UpdateProduct(ctx, uuid.New(), widget())
	require.NoError(t, err)
	_, err = svc.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	ops := operationCounts(t, rm)
	assert.Equal(t, int64(1), ops["create/success"])
	assert.Equal(t, int64(1), ops["update/not_found"])
	assert.Equal(t, int64(1), ops["delete/success"])
}

func operationCounts(t *testing.T, rm metricdata.ResourceMetrics) map[string]int64 {
	t.Helper()

	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "products.operations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "unexpected data type %T", m.Data)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value("operation")
				result, _ := dp.Attributes.Value("result")
				counts[op.AsString()+"/"+result.AsString()] += dp.Value
			}
		}
	}
	return counts
}
