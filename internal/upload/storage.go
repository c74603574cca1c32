package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxBytes  = 10 << 20
	MaxWidth  = 1600
	MaxHeight = 1600

	URLPrefix = "/uploads/"
)

var (
	ErrInvalidFile = errors.New("invalid image")
	ErrTooLarge    = errors.New("file too large")
	ErrNotFound    = errors.New("file not found")
)

var fileIDPattern = regexp.MustCompile(`^[0-9a-f-]{36}\.(jpg|png)$`)

type Result struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
	Name   string `json:"name"`
}

// Storage writes resized images into Dir and serves them under PublicBase/uploads/.
type Storage struct {
	Dir        string
	PublicBase string
}

func NewStorage(dir, publicBase string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{Dir: dir, PublicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Save decodes an image, fits it inside MaxWidth x MaxHeight and stores it.
// PNG sources stay PNG; everything else is re-encoded as JPEG.
func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxBytes {
		return Result{}, ErrTooLarge
	}

	ext := ".jpg"
	switch http.DetectContentType(data) {
	case "image/png":
		ext = ".png"
	case "image/jpeg", "image/gif", "image/bmp":
	default:
		return Result{}, fmt.Errorf("unsupported content type: %w", ErrInvalidFile)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("decode: %w", ErrInvalidFile)
	}
	b := img.Bounds()
	if b.Dx() > MaxWidth || b.Dy() > MaxHeight {
		img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	fileID := uuid.NewString() + ext
	if err := imaging.Save(img, filepath.Join(s.Dir, fileID), imaging.JPEGQuality(85)); err != nil {
		return Result{}, fmt.Errorf("save image: %w", err)
	}

	return Result{
		URL:    s.PublicBase + URLPrefix + fileID,
		FileID: fileID,
		Name:   filepath.Base(filepath.Clean("/" + name)),
	}, nil
}

// Remove deletes a stored file. Ids that were not produced by Save are rejected
// so a request cannot reach outside Dir.
func (s *Storage) Remove(_ context.Context, fileID string) error {
	if !fileIDPattern.MatchString(fileID) {
		return fmt.Errorf("file %q: %w", fileID, ErrNotFound)
	}
	err := os.Remove(filepath.Join(s.Dir, fileID))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file %q: %w", fileID, ErrNotFound)
	}
	return err
}
