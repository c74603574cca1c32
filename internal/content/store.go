// Package content keeps editable page blocks, such as the home hero or the
// about copy, as free-form JSON documents addressed by key.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("content not found")
	ErrValidation = errors.New("validation")
)

type Page struct {
	Key       string          `json:"key"`
	Content   json.RawMessage `json:"content"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Store interface {
	Get(ctx context.Context, key string) (*Page, error)
	Upsert(ctx context.Context, key string, content json.RawMessage) (*Page, error)
}
