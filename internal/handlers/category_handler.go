package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/services"
)

type CategoryHandler struct {
	Service *services.CategoryService
	Logger  logrus.FieldLogger
	Timeout time.Duration
}

type categoryView struct {
	Self string `json:"self"`
	models.Category
}

type createCategoryRequest struct {
	Name string `json:"categoryName" validate:"required"`
}

var createCategoryErrors = map[string]*models.Error{
	"Name": models.ErrCategoryNameRequired,
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var req createCategoryRequest
	if err := decodeJSON(r, &req, createCategoryErrors); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	category, err := h.Service.CreateCategory(ctx, caller, req.Name)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryView{Self: "/renTrentoAPI/categories/" + category.ID, Category: category})
}

func (h *CategoryHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	categories, err := h.Service.GetAllCategories(ctx)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{Self: "/renTrentoAPI/categories/" + c.ID, Category: c})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	if err := h.Service.DeleteCategory(ctx, caller, getParam(r, "id")); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
