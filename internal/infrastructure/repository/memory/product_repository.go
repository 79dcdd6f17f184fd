package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// DefaultShardCount is the number of lock stripes used when none is configured
const DefaultShardCount = 32

// shard is one lock stripe of the repository
type shard struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
}

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// Products are spread over independently locked shards so that operations on
// unrelated keys do not contend with each other.
type ProductRepository struct {
	shards []*shard
	tracer trace.Tracer
	logger *slog.Logger
}

// Option configures a ProductRepository
type Option func(*ProductRepository)

// WithShardCount sets the number of lock stripes. Values below 1 are ignored.
func WithShardCount(n int) Option {
	return func(r *ProductRepository) {
		if n < 1 {
			return
		}
		r.shards = newShards(n)
	}
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger, opts ...Option) *ProductRepository {
	r := &ProductRepository{
		shards: newShards(DefaultShardCount),
		tracer: tracer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{products: make(map[uuid.UUID]domain.Product)}
	}
	return shards
}

func (r *ProductRepository) shardFor(id uuid.UUID) *shard {
	return r.shards[xxhash.Sum64(id[:])%uint64(len(r.shards))]
}

// Save inserts or overwrites a product
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", product.ID.String()),
		attribute.String("product.name", product.Name),
	)

	s := r.shardFor(product.ID)
	s.mu.Lock()
	_, replaced := s.products[product.ID]
	s.products[product.ID] = product
	s.mu.Unlock()

	r.logger.DebugContext(ctx, "Product saved in repository",
		slog.String("product_id", product.ID.String()),
		slog.Bool("replaced", replaced),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return product, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	s := r.shardFor(id)
	s.mu.RLock()
	product, exists := s.products[id]
	s.mu.RUnlock()

	span.SetAttributes(attribute.Bool("product.found", exists))
	if !exists {
		r.logger.DebugContext(ctx, "Product not found in repository",
			slog.String("product_id", id.String()),
		)
		return domain.Product{}, false, nil
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, true, nil
}

// FindAll retrieves all products. Each shard is copied under its own read
// lock, so the result never reflects a half-applied write to any key.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	products := make([]domain.Product, 0, r.approxLen())
	for _, s := range r.shards {
		s.mu.RLock()
		for _, product := range s.products {
			products = append(products, product)
		}
		s.mu.RUnlock()
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// DeleteByID removes a product and reports whether it was present
func (r *ProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	s := r.shardFor(id)
	s.mu.Lock()
	_, exists := s.products[id]
	delete(s.products, id)
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("product.deleted", exists))

	r.logger.DebugContext(ctx, "Product delete processed in repository",
		slog.String("product_id", id.String()),
		slog.Bool("deleted", exists),
	)

	span.SetStatus(codes.Ok, "Delete processed")
	return exists, nil
}

// ExistsByID reports whether a product is stored under id
func (r *ProductRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.ExistsByID")
	defer span.End()

	s := r.shardFor(id)
	s.mu.RLock()
	_, exists := s.products[id]
	s.mu.RUnlock()

	span.SetAttributes(
		attribute.String("product.id", id.String()),
		attribute.Bool("product.exists", exists),
	)
	return exists, nil
}

// approxLen sizes the FindAll buffer; it may be stale by the time it is used
func (r *ProductRepository) approxLen() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.products)
		s.mu.RUnlock()
	}
	return n
}
