package handler

import (
	"net/http"

	"github.com/geotrace/geotrace-go/internal/apperror"
	"github.com/geotrace/geotrace-go/internal/crypto"
	"github.com/geotrace/geotrace-go/internal/middleware"
	"github.com/geotrace/geotrace-go/internal/model"
	"github.com/geotrace/geotrace-go/internal/service"
)

var (
	errPasswordTooLong = apperror.Validation("PASSWORD_TOO_LONG", "password must be at most 72 bytes")
	errUnauthorized    = apperror.New(apperror.KindUnauthorized, "UNAUTHORIZED", "unauthorized")
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
	resp    *Responder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, resp *Responder) *AuthHandler {
	return &AuthHandler{service: svc, resp: resp}
}

func (h *AuthHandler) credentials(w http.ResponseWriter, r *http.Request) (model.CredentialsRequest, bool) {
	var req model.CredentialsRequest
	if !h.resp.decode(w, r, &req) {
		return req, false
	}
	if len(req.Password) > crypto.MaxPasswordBytes {
		h.resp.Error(w, r, errPasswordTooLong)
		return req, false
	}
	return req, true
}

// HandleRegister handles POST /register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.TokenResponse{Token: token})
}

// HandleLogin handles POST /login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// HandleMe handles GET /me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.resp.Error(w, r, errUnauthorized)
		return
	}

	user, err := h.service.GetUser(r.Context(), id.ID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MeResponse{User: model.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}})
}
