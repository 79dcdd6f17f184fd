// Package sqlite stores products in an in-memory SQLite database through GORM.
// The database lives only as long as the process; it exists so the
// repository port is exercised by a SQL backend as well as by the map store.
//
// Unlike the memory store, this backend serializes every operation on a
// single connection. Shared-cache in-memory SQLite takes table-level locks
// and answers a conflicting second connection with SQLITE_LOCKED instead of
// waiting, and an in-memory database cannot use WAL. Use the memory backend
// when unrelated products must not contend.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// productRow is the table layout. Price is kept as text so decimals
// round-trip exactly.
type productRow struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Name          string `gorm:"not null"`
	Description   string
	Price         string `gorm:"type:text;not null"`
	StockQuantity int    `gorm:"not null"`
}

func (productRow) TableName() string {
	return "products"
}

func toRow(p domain.Product) productRow {
	return productRow{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.String(),
		StockQuantity: p.StockQuantity,
	}
}

func fromRow(r productRow) (domain.Product, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Product{}, errors.Wrapf(err, "parse id %q", r.ID)
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Product{}, errors.Wrapf(err, "parse price of %s", r.ID)
	}
	return domain.Product{
		ID:            id,
		Name:          r.Name,
		Description:   r.Description,
		Price:         price,
		StockQuantity: r.StockQuantity,
	}, nil
}

// ProductRepository is a GORM implementation of domain.ProductRepository
type ProductRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
	logger *slog.Logger
}

// DSN returns the connection string of a named in-memory database. Every
// connection opened with the same name shares one database.
func DSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
}

// Open connects to the named in-memory database and migrates the schema
func Open(name string, tracer trace.Tracer, log *slog.Logger) (*ProductRepository, error) {
	db, err := gorm.Open(sqlite.Open(DSN(name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	// One connection keeps the database alive for the process and avoids
	// SQLITE_LOCKED between shared-cache connections. See the package doc.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&productRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "migrate products")
	}

	log.Info("SQLite product repository ready", slog.String("database", name))

	return &ProductRepository{db: db, tracer: tracer, logger: log}, nil
}

// Close releases the underlying connection, discarding the database
func (r *ProductRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.Close()
}

func (r *ProductRepository) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	r.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
	return errors.Wrap(err, msg)
}

// Save upserts a product by id
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "SQLiteProductRepository.Save")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	row := toRow(product)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return domain.Product{}, r.fail(ctx, span, "save product", err)
	}

	span.SetStatus(codes.Ok, "Product saved")
	return product, nil
}

// FindByID retrieves a product by id
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "SQLiteProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	var row productRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetAttributes(attribute.Bool("product.found", false))
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, r.fail(ctx, span, "find product", err)
	}

	product, err := fromRow(row)
	if err != nil {
		return domain.Product{}, false, r.fail(ctx, span, "decode product", err)
	}

	span.SetAttributes(attribute.Bool("product.found", true))
	span.SetStatus(codes.Ok, "Product found")
	return product, true, nil
}

// FindAll retrieves every product
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "SQLiteProductRepository.FindAll")
	defer span.End()

	var rows []productRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, r.fail(ctx, span, "list products", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(row)
		if err != nil {
			return nil, r.fail(ctx, span, "decode product", err)
		}
		products = append(products, p)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// DeleteByID removes a product and reports whether a row was deleted
func (r *ProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "SQLiteProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	res := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id.String())
	if res.Error != nil {
		return false, r.fail(ctx, span, "delete product", res.Error)
	}

	deleted := res.RowsAffected > 0
	span.SetAttributes(attribute.Bool("product.deleted", deleted))
	span.SetStatus(codes.Ok, "Delete processed")
	return deleted, nil
}

// ExistsByID reports whether a row exists for id
func (r *ProductRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "SQLiteProductRepository.ExistsByID")
	defer span.End()

	var n int64
	err := r.db.WithContext(ctx).
		Model(&productRow{}).
		Where("id = ?", id.String()).
		Count(&n).Error
	if err != nil {
		return false, r.fail(ctx, span, "check product", err)
	}

	span.SetAttributes(
		attribute.String("product.id", id.String()),
		attribute.Bool("product.exists", n > 0),
	)
	return n > 0, nil
}
