package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/services"
)

type ProductHandler struct {
	Service *services.ProductService
	Logger  logrus.FieldLogger
	Timeout time.Duration
}

type productView struct {
	Self string `json:"self"`
	models.Product
}

func newProductView(p models.Product) productView {
	return productView{Self: "/renTrentoAPI/products/" + p.ID, Product: p}
}

type createProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	Description string           `json:"description"`
	PricePerDay *decimal.Decimal `json:"pricePerDay" validate:"required"`
	PickUpPoint string           `json:"pickUpPoint"`
	Status      string           `json:"status"`
}

var createProductErrors = map[string]*models.Error{
	"Name":        models.ErrProductNameRequired,
	"Category":    models.ErrInvalidCategory,
	"PricePerDay": models.ErrProductPriceRequired,
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var req createProductRequest
	if err := decodeJSON(r, &req, createProductErrors); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	product, err := h.Service.CreateProduct(ctx, caller, services.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		PickUpPoint: req.PickUpPoint,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductView(product))
}

func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ProductFilter{
		OwnerID:  q.Get("ownerId"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	products, err := h.Service.ListProducts(ctx, filter)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	product, err := h.Service.GetProduct(ctx, getParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(product))
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var upd models.ProductUpdate
	if err := decodeJSON(r, &upd, nil); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	product, err := h.Service.UpdateProduct(ctx, caller, getParam(r, "id"), upd)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(product))
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	if err := h.Service.DeleteProduct(ctx, caller, getParam(r, "id")); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	img, err := readImage(r, "image")
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	product, err := h.Service.UploadImage(ctx, caller, getParam(r, "id"), img.Name, img.ContentType, img.Data)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(product))
}
