package menu

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grabeat/internal/logger"
	"grabeat/internal/models"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid menu item request")
	ErrNotFound       = errors.New("menu item not found")
)

type DBLayer interface {
	CreateMenuItem(item *models.MenuItem) error
	GetMenuItemByID(id string) (*models.MenuItem, error)
	ListMenuItems() ([]models.MenuItem, error)
	ListMenuItemsByCategory(categoryID string) ([]models.MenuItem, error)
	UpdateMenuItem(item *models.MenuItem) error
	DeleteMenuItem(id string) error
}

type ListCache interface {
	GetMenuList(ctx context.Context) ([]models.MenuItem, bool)
	SetMenuList(ctx context.Context, items []models.MenuItem) error
	Invalidate(ctx context.Context) error
}

// Service manages the storefront menu. Uploaded images arrive as
// base64 payloads and are written under {uploadsDir}/menu-images; the
// stored row keeps the relative path and URLs are derived on read.
type Service struct {
	DB         DBLayer
	Cache      ListCache
	uploadsDir string
	backendURL string
	log        *logger.Logger
}

func NewService(db DBLayer, cache ListCache, uploadsDir, backendURL string, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Cache:      cache,
		uploadsDir: uploadsDir,
		backendURL: backendURL,
		log:        log,
	}
}

func (s *Service) CreateMenuItem(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := &models.MenuItem{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Desc:        req.Desc,
		Price:       req.Price,
		Combo:       req.Combo,
		CategoryID:  req.CategoryID,
		IsAvailable: available,
	}

	if req.ImageBase64 != "" {
		imagePath, err := s.saveImage(req.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		item.Image = imagePath
	}

	if err := s.DB.CreateMenuItem(item); err != nil {
		s.removeImage(item.Image)
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	s.invalidateCache(ctx)

	s.log.LogDatabase("INSERT", "menu_items", fmt.Sprintf("Created menu item %s (%s)", item.ID, item.Title))
	s.decorate(item)
	return item, nil
}

func (s *Service) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.DB.GetMenuItemByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.decorate(item)
	return item, nil
}

func (s *Service) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	if s.Cache != nil {
		if items, ok := s.Cache.GetMenuList(ctx); ok {
			return items, nil
		}
	}

	items, err := s.DB.ListMenuItems()
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.decorate(&items[i])
	}

	if s.Cache != nil {
		if err := s.Cache.SetMenuList(ctx, items); err != nil {
			s.log.Warn("CACHE", fmt.Sprintf("Failed to cache menu list: %v", err))
		}
	}
	return items, nil
}

func (s *Service) ListMenuItemsByCategory(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	items, err := s.DB.ListMenuItemsByCategory(categoryID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, id string, req *models.UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.DB.GetMenuItemByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidRequest)
		}
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Desc != nil {
		item.Desc = *req.Desc
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
		}
		item.Price = *req.Price
	}
	if req.Combo != nil {
		item.Combo = *req.Combo
	}
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	oldImage := ""
	if req.ImageBase64 != "" {
		imagePath, err := s.saveImage(req.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		oldImage = item.Image
		item.Image = imagePath
	}

	if err := s.DB.UpdateMenuItem(item); err != nil {
		if req.ImageBase64 != "" {
			s.removeImage(item.Image)
		}
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	s.removeImage(oldImage)
	s.invalidateCache(ctx)

	s.log.LogDatabase("UPDATE", "menu_items", fmt.Sprintf("Updated menu item %s", item.ID))
	s.decorate(item)
	return item, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	item, err := s.DB.GetMenuItemByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.DB.DeleteMenuItem(id); err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	s.removeImage(item.Image)
	s.invalidateCache(ctx)

	s.log.LogDatabase("DELETE", "menu_items", fmt.Sprintf("Deleted menu item %s", id))
	return nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.log.Warn("CACHE", fmt.Sprintf("Failed to invalidate menu cache: %v", err))
	}
}

// decorate fills the derived image URL from the stored relative path.
func (s *Service) decorate(item *models.MenuItem) {
	if item.Image == "" {
		return
	}
	item.ImageURL = fmt.Sprintf("%s/uploads/%s", strings.TrimRight(s.backendURL, "/"), item.Image)
}

// saveImage decodes a base64 payload, with or without a data URI
// prefix, and writes it under {uploadsDir}/menu-images. Returns the
// path relative to the uploads root.
func (s *Service) saveImage(payload string) (string, error) {
	ext := "png"
	if strings.HasPrefix(payload, "data:") {
		semicolon := strings.Index(payload, ";base64,")
		if semicolon < 0 {
			return "", fmt.Errorf("malformed image data URI")
		}
		mimeType := payload[len("data:"):semicolon]
		switch mimeType {
		case "image/png":
			ext = "png"
		case "image/jpeg", "image/jpg":
			ext = "jpg"
		case "image/webp":
			ext = "webp"
		default:
			return "", fmt.Errorf("unsupported image type %s", mimeType)
		}
		payload = payload[semicolon+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}

	dir := filepath.Join(s.uploadsDir, "menu-images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filepath.ToSlash(filepath.Join("menu-images", filename)), nil
}

// removeImage deletes a stored image file. Best-effort, a stale file
// on disk is not worth failing the request over.
func (s *Service) removeImage(relPath string) {
	if relPath == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.uploadsDir, filepath.FromSlash(relPath))); err != nil && !os.IsNotExist(err) {
		s.log.Warn("MENU", fmt.Sprintf("Failed to remove image %s: %v", relPath, err))
	}
}
