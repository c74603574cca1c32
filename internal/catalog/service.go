package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/es"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type SearchIndex interface {
	Put(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q es.Query) (int64, []uuid.UUID, error)
}

// ImageRemover deletes an uploaded file by its id.
type ImageRemover interface {
	Remove(ctx context.Context, fileID string) error
}

type CatalogService struct {
	Repo   *GormRepo
	Index  SearchIndex
	Images ImageRemover
	Events mykafka.Publisher
}

func (s *CatalogService) ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return s.Repo.ProductsByID(ctx, ids)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ListProducts uses the search index for text queries when one is configured
// and falls back to a LIKE scan when it is absent or failing.
func (s *CatalogService) ListProducts(ctx context.Context, f Filter) (int64, []models.Product, error) {
	if f.Category != "" && !models.ValidCategory(f.Category) {
		return 0, []models.Product{}, nil
	}
	if strings.TrimSpace(f.Search) == "" || s.Index == nil {
		return s.Repo.ListProducts(ctx, f)
	}

	total, ids, err := s.Index.Search(ctx, es.Query{
		Text:     f.Search,
		Category: f.Category,
		Featured: f.Featured,
		From:     f.Offset,
		Size:     f.Limit,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("product_search_fallback", "error", err)
		return s.Repo.ListProducts(ctx, f)
	}
	items, err := s.Repo.ProductsInOrder(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (s *CatalogService) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	return s.Repo.CategoryCounts(ctx)
}

func validate(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return fmt.Errorf("product name is required: %w", ErrValidation)
	case len([]rune(p.Name)) > 100:
		return fmt.Errorf("product name cannot exceed 100 characters: %w", ErrValidation)
	case strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("product description is required: %w", ErrValidation)
	case len([]rune(p.Description)) > 500:
		return fmt.Errorf("description cannot exceed 500 characters: %w", ErrValidation)
	case p.Price < 0:
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	case p.Image == "":
		return fmt.Errorf("product image is required: %w", ErrValidation)
	case !models.ValidCategory(p.Category):
		return fmt.Errorf("category must be one of %s: %w", strings.Join(models.Categories, ", "), ErrValidation)
	case p.Stock < 0:
		return fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}
	if p.Sizes == nil {
		p.Sizes = models.StringList{}
	}
	if p.Colors == nil {
		p.Colors = models.StringList{}
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	p := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		ImageID:     req.ImageID,
		Category:    req.Category,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_created", &p)
	return &p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.ImageID != nil {
		p.ImageID = *req.ImageID
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Sizes != nil {
		p.Sizes = *req.Sizes
	}
	if req.Colors != nil {
		p.Colors = *req.Colors
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_updated", p)
	return p, nil
}

// DeleteProduct removes the row first; image and index cleanup failures are only logged.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return err
	}

	l := logging.FromContext(ctx)
	if p.ImageID != "" && s.Images != nil {
		if err := s.Images.Remove(ctx, p.ImageID); err != nil {
			l.Error("product_image_delete_error", "product_id", id, "image_id", p.ImageID, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Error("product_unindex_error", "product_id", id, "error", err)
		}
	}
	mykafka.Emit(ctx, s.Events, l, mykafka.TopicProduct, id.String(),
		mykafka.NewEvent("product_deleted", map[string]any{"id": id}))
	return nil
}

func (s *CatalogService) afterWrite(ctx context.Context, event string, p *models.Product) {
	l := logging.FromContext(ctx)
	if s.Index != nil {
		if err := s.Index.Put(ctx, *p); err != nil {
			l.Error("product_index_error", "product_id", p.ID, "error", err)
		}
	}
	mykafka.Emit(ctx, s.Events, l, mykafka.TopicProduct, p.ID.String(),
		mykafka.NewEvent(event, map[string]any{
			"id":       p.ID,
			"name":     p.Name,
			"price":    p.Price,
			"stock":    p.Stock,
			"category": p.Category,
		}))
}
