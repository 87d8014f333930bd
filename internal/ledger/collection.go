package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is a document stored in a Collection. Key returns the composite key
// attributes; the first attribute is the owner, which lets List narrow a
// scan to one user.
type Record interface {
	Key() []string
}

// Collection is a typed view over State for one object type.
type Collection[T Record] struct {
	state      State
	objectType string
}

func NewCollection[T Record](state State, objectType string) *Collection[T] {
	return &Collection[T]{state: state, objectType: objectType}
}

func (c *Collection[T]) ObjectType() string { return c.objectType }

func (c *Collection[T]) key(attrs []string) (string, error) {
	for _, a := range attrs {
		if strings.TrimSpace(a) == "" {
			return "", fmt.Errorf("%w: empty attribute for %s", ErrInvalidKey, c.objectType)
		}
	}
	return CreateCompositeKey(c.objectType, attrs...)
}

func (c *Collection[T]) Exists(ctx context.Context, attrs ...string) (bool, error) {
	key, err := c.key(attrs)
	if err != nil {
		return false, err
	}
	raw, err := c.state.GetState(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", c.objectType, err)
	}
	return len(raw) > 0, nil
}

// Create stores v and fails with ErrExists when the key is taken.
func (c *Collection[T]) Create(ctx context.Context, v T) error {
	exists, err := c.Exists(ctx, v.Key()...)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s %s: %w", c.objectType, strings.Join(v.Key(), "/"), ErrExists)
	}
	return c.put(ctx, v)
}

// Update replaces v and fails with ErrNotFound when it does not exist.
func (c *Collection[T]) Update(ctx context.Context, v T) error {
	exists, err := c.Exists(ctx, v.Key()...)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", c.objectType, strings.Join(v.Key(), "/"), ErrNotFound)
	}
	return c.put(ctx, v)
}

func (c *Collection[T]) put(ctx context.Context, v T) error {
	key, err := c.key(v.Key())
	if err != nil {
		return err
	}
	data, err := Canonical(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.objectType, err)
	}
	if err := c.state.PutState(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", c.objectType, err)
	}
	return nil
}

// Delete removes the record and fails with ErrNotFound when it does not exist.
func (c *Collection[T]) Delete(ctx context.Context, attrs ...string) error {
	exists, err := c.Exists(ctx, attrs...)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", c.objectType, strings.Join(attrs, "/"), ErrNotFound)
	}
	key, _ := c.key(attrs)
	if err := c.state.DeleteState(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", c.objectType, err)
	}
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, attrs ...string) (T, error) {
	var zero T
	key, err := c.key(attrs)
	if err != nil {
		return zero, err
	}
	raw, err := c.state.GetState(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", c.objectType, err)
	}
	if len(raw) == 0 {
		return zero, fmt.Errorf("%s %s: %w", c.objectType, strings.Join(attrs, "/"), ErrNotFound)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("decode %s: %w", c.objectType, err)
	}
	return v, nil
}

// List returns every record whose key starts with the given attributes,
// ordered by key. With no attributes it lists the whole collection.
func (c *Collection[T]) List(ctx context.Context, prefix ...string) ([]T, error) {
	key, err := c.key(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := c.state.GetStateByPartialKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.objectType, err)
	}
	out := make([]T, 0, len(entries))
	for _, kv := range entries {
		var v T
		if err := json.Unmarshal(kv.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s %q: %w", c.objectType, kv.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
