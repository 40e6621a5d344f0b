package middleware

import (
	"context"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/validation"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type bodyKey[T any] struct{}

type paramsKey[T any] struct{}

// ValidateBody decodes and validates the JSON body into T before the handler
// runs. On failure the request is answered with 400 and the field list.
func ValidateBody[T any](v *validation.Validator, errs *common.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := new(T)
			if err := v.DecodeJSON(r.Body, payload); err != nil {
				errs.Respond(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), bodyKey[T]{}, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateParams validates the chi URL parameters against T. It must be
// mounted inline (r.With) so the route parameters are already resolved.
func ValidateParams[T any](v *validation.Validator, errs *common.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values := map[string]string{}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				for i, key := range rctx.URLParams.Keys {
					values[key] = rctx.URLParams.Values[i]
				}
			}

			params := new(T)
			if err := v.Params(values, params); err != nil {
				errs.Respond(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), paramsKey[T]{}, params)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BodyFrom returns the payload stored by ValidateBody[T].
func BodyFrom[T any](ctx context.Context) (*T, bool) {
	v, ok := ctx.Value(bodyKey[T]{}).(*T)
	return v, ok
}

// ParamsFrom returns the parameters stored by ValidateParams[T].
func ParamsFrom[T any](ctx context.Context) (*T, bool) {
	v, ok := ctx.Value(paramsKey[T]{}).(*T)
	return v, ok
}
