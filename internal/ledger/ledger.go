// Package ledger stores finance records as canonical JSON documents under
// composite keys. The key layout and the contract operations mirror a
// Hyperledger Fabric world state so the same data can be served from a
// local backend.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const keyDelimiter = "\x00"

var (
	ErrNotFound   = errors.New("record not found")
	ErrExists     = errors.New("record already exists")
	ErrInvalidKey = errors.New("invalid composite key")
)

// KV is a raw state entry.
type KV struct {
	Key   string
	Value []byte
}

// State is the world-state API the collections are written against.
// GetState returns nil without error when the key is absent.
// GetStateByPartialKey returns entries sorted by key.
type State interface {
	GetState(ctx context.Context, key string) ([]byte, error)
	PutState(ctx context.Context, key string, value []byte) error
	DeleteState(ctx context.Context, key string) error
	GetStateByPartialKey(ctx context.Context, prefix string) ([]KV, error)
}

// CreateCompositeKey joins objectType and attrs as
// \x00 objectType \x00 attr1 \x00 attr2 \x00 ...
func CreateCompositeKey(objectType string, attrs ...string) (string, error) {
	if err := validateKeyPart(objectType); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(keyDelimiter)
	b.WriteString(objectType)
	b.WriteString(keyDelimiter)
	for _, a := range attrs {
		if err := validateKeyPart(a); err != nil {
			return "", err
		}
		b.WriteString(a)
		b.WriteString(keyDelimiter)
	}
	return b.String(), nil
}

// SplitCompositeKey reverses CreateCompositeKey.
func SplitCompositeKey(key string) (string, []string, error) {
	if len(key) < 2 || !strings.HasPrefix(key, keyDelimiter) || !strings.HasSuffix(key, keyDelimiter) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	parts := strings.Split(key[1:len(key)-1], keyDelimiter)
	return parts[0], parts[1:], nil
}

func validateKeyPart(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q is not valid utf-8", ErrInvalidKey, s)
	}
	for _, r := range s {
		if r == 0 || r == utf8.MaxRune {
			return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidKey, s)
		}
	}
	return nil
}

// Canonical encodes v as JSON with object keys sorted at every level so that
// equal records always produce identical bytes.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
