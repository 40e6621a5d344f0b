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

type TagHandler struct {
	tagService *service.TagService
	validator  *validation.Validator
	errs       *common.ErrorResponder
}

func NewTagHandler(tagService *service.TagService, v *validation.Validator, errs *common.ErrorResponder) *TagHandler {
	return &TagHandler{tagService: tagService, validator: v, errs: errs}
}

func (h *TagHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.With(middleware.ValidateBody[service.CreateTagRequest](h.validator, h.errs)).Post("/", h.create)
}

func (h *TagHandler) list(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context())
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Tag{"tags": tags})
}

func (h *TagHandler) create(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.BodyFrom[service.CreateTagRequest](r.Context())

	tag, err := h.tagService.Create(r.Context(), *req)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, struct {
		Message string     `json:"message"`
		Tag     *model.Tag `json:"tag"`
	}{"Tag created successfully", tag})
}
