package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// recordService is the user-scoped CRUD every record resource exposes.
type recordService[T any] interface {
	Create(ctx context.Context, userID string, v T) (T, error)
	Get(ctx context.Context, userID, id string) (T, error)
	List(ctx context.Context, userID string) ([]T, error)
	Update(ctx context.Context, userID, id string, v T) (T, error)
	Delete(ctx context.Context, userID, id string) error
}

// recordRoutes mounts POST /, GET /, GET /{id}, PUT /{id} and DELETE /{id}.
func recordRoutes[T any](rt chi.Router, svc recordService[T]) {
	rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := decodeJSON(w, r, &v); err != nil {
			respondError(w, r, err)
			return
		}
		created, err := svc.Create(r.Context(), userID(r), v)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	})

	rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), userID(r))
		if err != nil {
			respondError(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	})

	rt.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	})

	rt.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := decodeJSON(w, r, &v); err != nil {
			respondError(w, r, err)
			return
		}
		updated, err := svc.Update(r.Context(), userID(r), chi.URLParam(r, "id"), v)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	})

	rt.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
