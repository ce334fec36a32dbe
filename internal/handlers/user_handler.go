package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/services"
)

type UserHandler struct {
	Service *services.UserService
	Logger  logrus.FieldLogger
	Timeout time.Duration
}

type userView struct {
	Self     string          `json:"self"`
	ID       string          `json:"id"`
	UserName string          `json:"userName"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	Wallet   decimal.Decimal `json:"wallet"`
}

func newUserView(u models.User) userView {
	return userView{
		Self:     services.UserSelf(u.ID),
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
		Role:     u.Role,
		Wallet:   u.Wallet,
	}
}

type signUpRequest struct {
	UserName string `json:"userName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

var signUpErrors = map[string]*models.Error{
	"UserName": models.ErrUserNameRequired,
	"Email":    models.ErrInvalidEmail,
	"Password": models.ErrPasswordRequired,
	"Role":     models.ErrInvalidRole,
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SignUp is public. An admin token, when present, may set the role.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req, signUpErrors); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	var caller *models.Principal
	if p, ok := PrincipalFrom(r.Context()); ok {
		caller = &p
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	user, err := h.Service.SignUp(ctx, caller, services.SignUpInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserView(user))
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	users, err := h.Service.ListUsers(ctx, models.UserFilter{Role: r.URL.Query().Get("role")})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	h.writeUser(w, r, caller.ID)
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, getParam(r, "id"))
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	user, err := h.Service.GetUser(ctx, id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var upd models.UserUpdate
	if err := decodeJSON(r, &upd, nil); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	user, err := h.Service.UpdateUser(ctx, caller, getParam(r, "id"), upd)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	if err := h.Service.DeleteUser(ctx, caller, getParam(r, "id")); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	var req topUpRequest
	if err := decodeJSON(r, &req, nil); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	user, err := h.Service.TopUp(ctx, caller, getParam(r, "id"), req.Amount)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *UserHandler) WalletHistory(w http.ResponseWriter, r *http.Request) {
	caller, _ := PrincipalFrom(r.Context())
	ctx, cancel := contextWithTimeout(r, h.Timeout)
	defer cancel()

	entries, err := h.Service.WalletHistory(ctx, caller, getParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
