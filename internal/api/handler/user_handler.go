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

type UserHandler struct {
	userService *service.UserService
	validator   *validation.Validator
	errs        *common.ErrorResponder
}

func NewUserHandler(userService *service.UserService, v *validation.Validator, errs *common.ErrorResponder) *UserHandler {
	return &UserHandler{userService: userService, validator: v, errs: errs}
}

// RegisterRoutes expects to be mounted behind middleware.Authenticator.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	withID := middleware.ValidateParams[idParams](h.validator, h.errs)

	r.Get("/", h.me)
	r.With(withID).Get("/{id}", h.get)
	r.With(withID, middleware.ValidateBody[service.UpdateUserRequest](h.validator, h.errs)).Put("/{id}", h.update)
	r.With(withID).Delete("/{id}", h.delete)
}

type userResponse struct {
	Message string            `json:"message,omitempty"`
	User    *model.PublicUser `json:"user"`
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	user, err := h.userService.Get(r.Context(), userID, userID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), userID, params.ID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	req, _ := middleware.BodyFrom[service.UpdateUserRequest](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), userID, params.ID, *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, userResponse{Message: "User updated successfully", User: user})
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), userID, params.ID); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
