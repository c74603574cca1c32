package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type MessageRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

type UpdateRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

func validStatus(s string) bool {
	switch s {
	case models.ContactNew, models.ContactRead, models.ContactReplied:
		return true
	}
	return false
}

type ContactService struct {
	DB *gorm.DB
}

func (s *ContactService) Submit(ctx context.Context, req MessageRequest) (*models.ContactMessage, error) {
	m := &models.ContactMessage{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		Status:    models.ContactNew,
	}
	if m.FirstName == "" || m.LastName == "" || m.Email == "" || m.Message == "" {
		return nil, fmt.Errorf("firstName, lastName, email and message are required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return nil, fmt.Errorf("email is invalid: %w", ErrValidation)
	}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (s *ContactService) List(ctx context.Context, status string) ([]models.ContactMessage, error) {
	if status != "" && !validStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	q := s.DB.WithContext(ctx).Model(&models.ContactMessage{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	msgs := make([]models.ContactMessage, 0)
	err := q.Order("created_at DESC").Find(&msgs).Error
	return msgs, err
}

func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.ContactMessage, error) {
	updates := map[string]any{}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, fmt.Errorf("unknown status %q: %w", *req.Status, ErrValidation)
		}
		updates["status"] = *req.Status
	}
	if req.AdminNotes != nil {
		updates["admin_notes"] = strings.TrimSpace(*req.AdminNotes)
	}

	db := s.DB.WithContext(ctx)
	var m models.ContactMessage
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if len(updates) == 0 {
		return &m, nil
	}
	if err := db.Model(&m).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
