package handler

import (
	"habit_tracker/internal/api/middleware"
	"habit_tracker/internal/common"
	"net/http"
)

// Path parameter schemas.
type idParams struct {
	ID string `param:"id" validate:"required,uuid"`
}

type tagIDParams struct {
	TagID string `param:"tagId" validate:"required,uuid"`
}

type habitTagParams struct {
	ID    string `param:"id" validate:"required,uuid"`
	TagID string `param:"tagId" validate:"required,uuid"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// currentUserID is only called behind middleware.Authenticator.
func currentUserID(r *http.Request) (string, error) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return "", common.ErrMissingToken
	}
	return id, nil
}
