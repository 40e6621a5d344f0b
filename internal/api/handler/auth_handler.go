package handler

import (
	"habit_tracker/internal/api/middleware"
	"habit_tracker/internal/app/service"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/validation"
	"habit_tracker/internal/domain/model"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validation.Validator
	errs        *common.ErrorResponder
}

func NewAuthHandler(authService *service.AuthService, v *validation.Validator, errs *common.ErrorResponder) *AuthHandler {
	return &AuthHandler{authService: authService, validator: v, errs: errs}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.ValidateBody[service.RegisterRequest](h.validator, h.errs)).Post("/register", h.register)
	r.With(middleware.ValidateBody[service.LoginRequest](h.validator, h.errs)).Post("/login", h.login)
}

type authResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
	Token   string           `json:"token"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.BodyFrom[service.RegisterRequest](r.Context())

	resp, err := h.authService.Register(r.Context(), *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, authResponse{
		Message: "User created successfully",
		User:    resp.User,
		Token:   resp.Token,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.BodyFrom[service.LoginRequest](r.Context())

	resp, err := h.authService.Login(r.Context(), *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    resp.User,
		Token:   resp.Token,
	})
}
