package services

import (
	"context"
	"fmt"

	"walletguru/internal/ledger"
)

type validatable interface {
	ledger.Record
	Validate() error
}

// records implements the user-scoped CRUD shared by every record service.
// assign stamps the owner and ID onto an incoming value and fills defaults;
// keep, when set, carries server-owned fields from the stored value on update.
type records[T validatable] struct {
	coll   *ledger.Collection[T]
	assign func(v T, userID, id string) T
	keep   func(stored, v T) T
}

func (r *records[T]) Create(ctx context.Context, userID string, v T) (T, error) {
	return r.create(ctx, userID, newID(), v)
}

func (r *records[T]) create(ctx context.Context, userID, id string, v T) (T, error) {
	var zero T
	v = r.assign(v, userID, id)
	if err := v.Validate(); err != nil {
		return zero, fmt.Errorf("validate %s: %w", r.coll.ObjectType(), err)
	}
	if err := r.coll.Create(ctx, v); err != nil {
		return zero, err
	}
	return v, nil
}

func (r *records[T]) Get(ctx context.Context, userID, id string) (T, error) {
	return r.coll.Get(ctx, userID, id)
}

func (r *records[T]) List(ctx context.Context, userID string) ([]T, error) {
	return r.coll.List(ctx, userID)
}

// ListAll returns the records of every user.
func (r *records[T]) ListAll(ctx context.Context) ([]T, error) {
	return r.coll.List(ctx)
}

func (r *records[T]) Update(ctx context.Context, userID, id string, v T) (T, error) {
	var zero T
	stored, err := r.coll.Get(ctx, userID, id)
	if err != nil {
		return zero, err
	}
	v = r.assign(v, userID, id)
	if r.keep != nil {
		v = r.keep(stored, v)
	}
	if err := v.Validate(); err != nil {
		return zero, fmt.Errorf("validate %s: %w", r.coll.ObjectType(), err)
	}
	if err := r.coll.Update(ctx, v); err != nil {
		return zero, err
	}
	return v, nil
}

func (r *records[T]) Delete(ctx context.Context, userID, id string) error {
	return r.coll.Delete(ctx, userID, id)
}
