package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/services"
)

type RentalHandler struct {
	Service *services.RentalService
	Logger  logrus.FieldLogger
	Timeout time.Duration
}

type rentalView struct {
	Self string `json:"self"`
	models.Rental
}

func newRentalView(r models.Rental) rentalView {
	return rentalView{Self: "/renTrentoAPI/rentals/" + r.ID, Rental: r}
}

// createRentalRequest ignores any client supplied price, parties or status.
type createRentalRequest struct {
	ProductID string     `json:"productId" validate:"required"`
	StartDate *time.Time `json:"startDate" validate:"required"`
	EndDate   *time.Time `json:"endDate" validate:"required"`
}

var createRentalErrors = map[string]*models.Error{
	"ProductID": models.ErrIncorrectProductID,
	"StartDate": models.ErrInvalidPeriod,
	"EndDate":   models.ErrInvalidPeriod,
}

type updateRentalRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Status    *string    `json:"status" validate:"omitempty,oneof=active not_active finished"`
}

var updateRentalErrors = map[string]*models.Error{
	"Status": models.ErrInvalidStatus,
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var req createRentalRequest
	if err := decodeJSON(r, &req, createRentalErrors); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	rental, err := h.Service.CreateRental(ctx, caller, models.CreateRentalInput{
		ProductID: req.ProductID,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newRentalView(rental))
}

func (h *RentalHandler) GetRentals(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	q := r.URL.Query()
	filter := models.RentalFilter{
		ProductID: q.Get("productId"),
		RenterID:  q.Get("renterId"),
		ClientID:  q.Get("clientId"),
		Status:    q.Get("status"),
	}
	for name, dst := range map[string]**time.Time{"startDate": &filter.StartDate, "endDate": &filter.EndDate} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+name)
			return
		}
		t = t.UTC()
		*dst = &t
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	rentals, err := h.Service.ListRentals(ctx, caller, filter)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	views := make([]rentalView, 0, len(rentals))
	for _, rental := range rentals {
		views = append(views, newRentalView(rental))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RentalHandler) GetRentalByID(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	rental, err := h.Service.GetRental(ctx, caller, getParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalView(rental))
}

func (h *RentalHandler) UpdateRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var req updateRentalRequest
	if err := decodeJSON(r, &req, updateRentalErrors); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	upd := models.RentalUpdate{Status: req.Status}
	if req.StartDate != nil {
		t := req.StartDate.UTC()
		upd.StartDate = &t
	}
	if req.EndDate != nil {
		t := req.EndDate.UTC()
		upd.EndDate = &t
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	if err := h.Service.UpdateRental(ctx, caller, getParam(r, "id"), upd); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	rental, err := h.Service.CancelRental(ctx, caller, getParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalView(rental))
}

func (h *RentalHandler) FinishRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	rental, err := h.Service.FinishRental(ctx, caller, getParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalView(rental))
}

func (h *RentalHandler) DeleteRental(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	if err := h.Service.DeleteRental(ctx, caller, getParam(r, "id")); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
