package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/mrops-br/products-catalog-api/internal/app/dto"
	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/response"
)

// MaxBodyBytes caps the size of create and update request bodies
const MaxBodyBytes = 1 << 20

var (
	errProductNotFound = errors.New("product not found")
	errInternal        = errors.New("internal server error")
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service service.ProductUseCase
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service service.ProductUseCase, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints on r
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateProduct)
	r.Get("/", h.ListProducts)
	r.Get("/{id}", h.GetProduct)
	r.Put("/{id}", h.UpdateProduct)
	r.Delete("/{id}", h.DeleteProduct)
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product id",
			slog.String("product_id", raw),
		)
		response.Error(w, http.StatusBadRequest, errors.Wrapf(err, "invalid product id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request) (dto.ProductRequest, bool) {
	var req dto.ProductRequest
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, err)
			return req, false
		}
		response.Error(w, http.StatusBadRequest, err)
		return req, false
	}

	if err := req.Validate(); err != nil {
		var verr *dto.ValidationError
		if errors.As(err, &verr) {
			response.ValidationError(w, err, verr.Fields)
		} else {
			response.Error(w, http.StatusBadRequest, err)
		}
		return req, false
	}
	return req, true
}

func (h *ProductHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Request failed",
		slog.String("error", err.Error()),
	)
	response.Error(w, http.StatusInternalServerError, errInternal)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.ToDomain())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, found, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		response.Error(w, http.StatusNotFound, errProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAllProducts(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	product, found, err := h.service.UpdateProduct(r.Context(), id, req.ToDomain())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		response.Error(w, http.StatusNotFound, errProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !deleted {
		response.Error(w, http.StatusNotFound, errProductNotFound)
		return
	}

	response.NoContent(w)
}
