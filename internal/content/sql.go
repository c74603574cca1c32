package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/boutique/internal/models"
)

// GormStore keeps pages in the SQL database when no document store is configured.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Get(ctx context.Context, key string) (*Page, error) {
	var row models.PageContent
	err := s.DB.WithContext(ctx).Where(&models.PageContent{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("page %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &Page{Key: row.Key, Content: json.RawMessage(row.Body), UpdatedAt: row.UpdatedAt}, nil
}

func (s *GormStore) Upsert(ctx context.Context, key string, content json.RawMessage) (*Page, error) {
	if !json.Valid(content) {
		return nil, fmt.Errorf("content is not valid JSON: %w", ErrValidation)
	}
	row := models.PageContent{Key: key, Body: string(content)}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert page %q: %w", key, err)
	}
	return s.Get(ctx, key)
}
