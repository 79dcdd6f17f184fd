package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductRequest is the body of create and update requests. It carries no id:
// ids come from the server on create and from the path on update.
type ProductRequest struct {
	Name          string           `json:"name" validate:"required,notblank"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" validate:"required,gte=0"`
	StockQuantity int              `json:"stockQuantity" validate:"gte=0"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// ValidationError lists the request fields that failed validation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Numeric tags see a decimal as its sign, so gte=0 means non-negative.
	// The value itself is never converted.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.Sign()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// MaxPriceExponent bounds the decimal exponent of a price in either
// direction. Larger exponents are rejected before anything expands them.
const MaxPriceExponent = 64

// Validate checks the request against the boundary rules
func (r *ProductRequest) Validate() error {
	fields := make(map[string]string)

	if err := validate.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = message(fe)
		}
	}

	if _, failed := fields["price"]; !failed && r.Price != nil {
		if exp := r.Price.Exponent(); exp > MaxPriceExponent || exp < -MaxPriceExponent {
			fields["price"] = "Price is out of range"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "name.required", "name.notblank":
		return "Product name is required"
	case "price.required":
		return "Product price is required"
	case "price.gte":
		return "Price must be greater than or equal to 0"
	case "stockQuantity.gte":
		return "Stock quantity must be greater than or equal to 0"
	}
	return "failed on " + fe.Tag()
}

// ToDomain converts a validated request into a domain Product without an id
func (r *ProductRequest) ToDomain() domain.Product {
	p := domain.Product{
		Name:          r.Name,
		Description:   r.Description,
		StockQuantity: r.StockQuantity,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	return p
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
