package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const (
	DefaultCategory = "General"
	DefaultLimit    = 10

	maxTitle   = 200
	maxExcerpt = 500
	maxComment = 1000
)

type ImageRemover interface {
	Remove(ctx context.Context, fileID string) error
}

type BlogService struct {
	DB     *gorm.DB
	Images ImageRemover
}

type Filter struct {
	// AllStates lists drafts too; only admins may set it.
	AllStates bool
	Category  string
	Featured  bool
	Search    string
	Offset    int
	Limit     int
}

func (s *BlogService) List(ctx context.Context, f Filter) (int64, []models.Blog, error) {
	q := s.DB.WithContext(ctx).Model(&models.Blog{})
	if !f.AllStates {
		q = q.Where("published = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Featured {
		q = q.Where("featured = ?", true)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	blogs := make([]models.Blog, 0)
	err := q.Order("created_at DESC").Order("id").Offset(f.Offset).Limit(f.Limit).Find(&blogs).Error
	return total, blogs, err
}

// find looks a post up by slug first and by id second.
func (s *BlogService) find(db *gorm.DB, ref string) (*models.Blog, error) {
	var b models.Blog
	err := db.Where("slug = ?", ref).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if id, pErr := uuid.Parse(ref); pErr == nil {
			err = db.Where("id = ?", id).First(&b).Error
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("blog %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BlogService) Get(ctx context.Context, ref string) (*models.Blog, error) {
	return s.find(s.DB.WithContext(ctx), ref)
}

// View returns the post and counts one read of it.
func (s *BlogService) View(ctx context.Context, ref string) (*models.Blog, error) {
	db := s.DB.WithContext(ctx)
	b, err := s.find(db, ref)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.Blog{}).Where("id = ?", b.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return nil, err
	}
	if err := db.Where("id = ?", b.ID).First(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func apply(b *models.Blog, req BlogRequest) {
	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Excerpt != nil {
		b.Excerpt = strings.TrimSpace(*req.Excerpt)
	}
	if req.Content != nil {
		b.Content = *req.Content
	}
	if req.AuthorName != nil {
		b.AuthorName = strings.TrimSpace(*req.AuthorName)
	}
	if req.AuthorEmail != nil {
		b.AuthorEmail = strings.TrimSpace(*req.AuthorEmail)
	}
	if req.Image != nil {
		b.Image = *req.Image
	}
	if req.ImageID != nil {
		b.ImageID = *req.ImageID
	}
	if req.Category != nil {
		b.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		b.Tags = models.StringList(*req.Tags)
	}
	if req.Published != nil {
		b.Published = *req.Published
	}
	if req.Featured != nil {
		b.Featured = *req.Featured
	}
}

func validate(b *models.Blog) error {
	if b.Title == "" || strings.TrimSpace(b.Content) == "" || b.Excerpt == "" {
		return fmt.Errorf("title, content, and excerpt are required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(b.Title) > maxTitle {
		return fmt.Errorf("title cannot exceed %d characters: %w", maxTitle, ErrValidation)
	}
	if utf8.RuneCountInString(b.Excerpt) > maxExcerpt {
		return fmt.Errorf("excerpt cannot exceed %d characters: %w", maxExcerpt, ErrValidation)
	}
	if b.Category == "" {
		b.Category = DefaultCategory
	}
	if b.Tags == nil {
		b.Tags = models.StringList{}
	}
	return nil
}

// uniqueSlug appends -2, -3 and so on until no other post holds the slug.
func uniqueSlug(db *gorm.DB, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var n int64
		if err := db.Model(&models.Blog{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Create stores a post; authorEmail defaults to the caller's email.
func (s *BlogService) Create(ctx context.Context, req BlogRequest, callerEmail string) (*models.Blog, error) {
	b := &models.Blog{}
	apply(b, req)
	if b.AuthorEmail == "" {
		b.AuthorEmail = callerEmail
	}
	if b.AuthorName == "" {
		b.AuthorName = b.AuthorEmail
	}
	if err := validate(b); err != nil {
		return nil, err
	}
	if b.AuthorEmail == "" {
		return nil, fmt.Errorf("authorEmail is required: %w", ErrValidation)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, Slugify(b.Title))
		if err != nil {
			return err
		}
		b.Slug = slug
		return tx.Create(b).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update keeps the slug so existing links stay valid.
func (s *BlogService) Update(ctx context.Context, ref string, req BlogRequest) (*models.Blog, error) {
	db := s.DB.WithContext(ctx)
	b, err := s.find(db, ref)
	if err != nil {
		return nil, err
	}
	apply(b, req)
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := db.Save(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the post with its comments and drops its image; image errors are only logged.
func (s *BlogService) Delete(ctx context.Context, ref string) error {
	db := s.DB.WithContext(ctx)
	b, err := s.find(db, ref)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_id = ?", b.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Blog{}, "id = ?", b.ID).Error
	})
	if err != nil {
		return err
	}
	if b.ImageID != "" && s.Images != nil {
		if err := s.Images.Remove(ctx, b.ImageID); err != nil {
			logging.FromContext(ctx).Error("blog_image_delete_error", "blog_id", b.ID, "image_id", b.ImageID, "error", err)
		}
	}
	return nil
}

func (s *BlogService) Comments(ctx context.Context, ref string) ([]models.Comment, error) {
	db := s.DB.WithContext(ctx)
	b, err := s.find(db, ref)
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0)
	err = db.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "first_name", "last_name") }).
		Where("blog_id = ?", b.ID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (s *BlogService) AddComment(ctx context.Context, ref string, userID uuid.UUID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxComment {
		return nil, fmt.Errorf("comment cannot exceed %d characters: %w", maxComment, ErrValidation)
	}

	db := s.DB.WithContext(ctx)
	b, err := s.find(db, ref)
	if err != nil {
		return nil, err
	}
	cm := &models.Comment{UserID: userID, BlogID: b.ID, Content: content}
	if err := db.Create(cm).Error; err != nil {
		return nil, err
	}
	err = db.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "first_name", "last_name") }).
		First(cm, "id = ?", cm.ID).Error
	return cm, err
}

func (s *BlogService) AllComments(ctx context.Context) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.DB.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "first_name", "last_name", "email") }).
		Preload("Blog", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "slug") }).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (s *BlogService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return nil
}
