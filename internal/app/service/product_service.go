package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// ProductUseCase is the entry point inbound adapters call.
//
// "Not found" is an expected outcome and is reported through the boolean
// results, never through the error. Errors only surface repository failures.
type ProductUseCase interface {
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (domain.Product, bool, error)
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, product domain.Product) (domain.Product, bool, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
}

const (
	resultSuccess  = "success"
	resultNotFound = "not_found"
	resultFailure  = "failure"
)

// ProductService handles product use cases
type ProductService struct {
	catalog               *domain.Catalog
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

var _ ProductUseCase = (*ProductService)(nil)

// NewProductService creates a new product service
func NewProductService(
	catalog *domain.Catalog,
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	// Initialize metrics
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		catalog:               catalog,
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.ErrorContext(ctx, msg,
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	s.record(ctx, operation, resultFailure)
}

// CreateProduct assigns an identifier when missing and stores the product
func (s *ProductService) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	product = s.catalog.CreateProduct(product)

	span.SetAttributes(
		attribute.String("product.id", product.ID.String()),
		attribute.String("product.name", product.Name),
		attribute.String("product.price", product.Price.String()),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name),
		slog.String("price", product.Price.String()),
	)

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		s.fail(ctx, span, "create", "Failed to store product", err)
		return domain.Product{}, err
	}

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", resultSuccess)

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", saved.ID.String()),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return saved, nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	product, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.fail(ctx, span, "read", "Failed to read product", err)
		return domain.Product{}, false, err
	}
	if !found {
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id.String()),
		)
		s.record(ctx, "read", resultNotFound)
		span.SetStatus(codes.Ok, "Product not found")
		return domain.Product{}, false, nil
	}

	s.record(ctx, "read", resultSuccess)
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return product, true, nil
}

// GetAllProducts retrieves all products
func (s *ProductService) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetAllProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.fail(ctx, span, "list", "Failed to list products", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", resultSuccess)

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

// UpdateProduct replaces the product stored under id. It reports false,
// without writing anything, when no product exists under id.
//
// The existence check and the save are two separate repository calls. A
// delete that lands between them is undone by the save.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, product domain.Product) (domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		s.fail(ctx, span, "update", "Failed to check product", err)
		return domain.Product{}, false, err
	}
	if !exists {
		s.logger.WarnContext(ctx, "Product not found for update",
			slog.String("product_id", id.String()),
		)
		s.record(ctx, "update", resultNotFound)
		span.SetStatus(codes.Ok, "Product not found")
		return domain.Product{}, false, nil
	}

	product = s.catalog.UpdateProduct(id, product)

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		s.fail(ctx, span, "update", "Failed to store product", err)
		return domain.Product{}, false, err
	}

	s.record(ctx, "update", resultSuccess)
	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return saved, true, nil
}

// DeleteProduct removes a product and reports whether it existed
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		s.fail(ctx, span, "delete", "Failed to delete product", err)
		return false, err
	}
	if !deleted {
		s.logger.WarnContext(ctx, "Product not found for delete",
			slog.String("product_id", id.String()),
		)
		s.record(ctx, "delete", resultNotFound)
		span.SetStatus(codes.Ok, "Product not found")
		return false, nil
	}

	s.record(ctx, "delete", resultSuccess)
	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return true, nil
}
