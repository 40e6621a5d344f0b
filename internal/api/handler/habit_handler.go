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

type HabitHandler struct {
	habitService *service.HabitService
	validator    *validation.Validator
	errs         *common.ErrorResponder
}

func NewHabitHandler(habitService *service.HabitService, v *validation.Validator, errs *common.ErrorResponder) *HabitHandler {
	return &HabitHandler{habitService: habitService, validator: v, errs: errs}
}

// RegisterRoutes expects to be mounted behind middleware.Authenticator.
func (h *HabitHandler) RegisterRoutes(r chi.Router) {
	withID := middleware.ValidateParams[idParams](h.validator, h.errs)

	r.Get("/", h.list)
	r.With(middleware.ValidateBody[service.CreateHabitRequest](h.validator, h.errs)).Post("/", h.create)
	r.With(middleware.ValidateParams[tagIDParams](h.validator, h.errs)).Get("/tag/{tagId}", h.byTag)

	r.With(withID).Get("/{id}", h.get)
	r.With(withID, middleware.ValidateBody[service.UpdateHabitRequest](h.validator, h.errs)).Put("/{id}", h.update)
	r.With(withID).Delete("/{id}", h.delete)

	r.With(withID, middleware.ValidateBody[service.CompleteHabitRequest](h.validator, h.errs)).Post("/{id}/complete", h.complete)
	r.With(withID).Get("/{id}/entries", h.entries)

	r.With(withID, middleware.ValidateBody[service.AddTagsRequest](h.validator, h.errs)).Post("/{id}/tags", h.addTags)
	r.With(middleware.ValidateParams[habitTagParams](h.validator, h.errs)).Delete("/{id}/tags/{tagId}", h.removeTag)
}

type habitResponse struct {
	Message string       `json:"message,omitempty"`
	Habit   *model.Habit `json:"habit"`
}

func (h *HabitHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	habits, err := h.habitService.List(r.Context(), userID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Habit{"habits": habits})
}

func (h *HabitHandler) create(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.BodyFrom[service.CreateHabitRequest](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	habit, err := h.habitService.Create(r.Context(), userID, *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, habitResponse{Message: "Habit created successfully", Habit: habit})
}

func (h *HabitHandler) get(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	habit, err := h.habitService.Get(r.Context(), userID, params.ID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, habitResponse{Habit: habit})
}

func (h *HabitHandler) update(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	req, _ := middleware.BodyFrom[service.UpdateHabitRequest](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	habit, err := h.habitService.Update(r.Context(), userID, params.ID, *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, habitResponse{Message: "Habit updated successfully", Habit: habit})
}

func (h *HabitHandler) delete(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	if err := h.habitService.Delete(r.Context(), userID, params.ID); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Habit deleted successfully"})
}

func (h *HabitHandler) complete(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	req, _ := middleware.BodyFrom[service.CompleteHabitRequest](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	entry, err := h.habitService.Complete(r.Context(), userID, params.ID, *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		Entry   *model.Entry `json:"entry"`
	}{"Habit completed successfully", entry})
}

func (h *HabitHandler) entries(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	entries, err := h.habitService.Entries(r.Context(), userID, params.ID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Entry{"entries": entries})
}

func (h *HabitHandler) byTag(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[tagIDParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	tag, habits, err := h.habitService.ByTag(r.Context(), userID, params.TagID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, struct {
		Tag    *model.Tag    `json:"tag"`
		Habits []model.Habit `json:"habits"`
	}{tag, habits})
}

func (h *HabitHandler) addTags(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[idParams](r.Context())
	req, _ := middleware.BodyFrom[service.AddTagsRequest](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	habit, err := h.habitService.AddTags(r.Context(), userID, params.ID, *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, habitResponse{Message: "Tags added successfully", Habit: habit})
}

func (h *HabitHandler) removeTag(w http.ResponseWriter, r *http.Request) {
	params, _ := middleware.ParamsFrom[habitTagParams](r.Context())
	userID, err := currentUserID(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	if err := h.habitService.RemoveTag(r.Context(), userID, params.ID, params.TagID); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Tag removed successfully"})
}
