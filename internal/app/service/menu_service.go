package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/domain/model"
	"restaurant_menu/internal/domain/repository"
	"restaurant_menu/internal/platform/logging"
	"restaurant_menu/internal/platform/storage"
)

// MenuCache holds the public listing under a generation number. Invalidate
// moves to a new generation, so a listing read before a write can only ever
// be stored under the old one. A nil MenuCache disables caching.
type MenuCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64) ([]model.MenuItem, bool, error)
	Set(ctx context.Context, gen int64, items []model.MenuItem) error
	Invalidate(ctx context.Context) error
}

// ImageCleaner removes a hosted image once its menu item is gone.
type ImageCleaner interface {
	Schedule(ctx context.Context, url string) error
}

type MenuService struct {
	repo    repository.MenuItemRepository
	images  storage.ImageStore
	cleaner ImageCleaner
	cache   MenuCache
	logger  logging.Logger
	now     func() time.Time
}

func NewMenuService(
	repo repository.MenuItemRepository,
	images storage.ImageStore,
	cleaner ImageCleaner,
	cache MenuCache,
	logger logging.Logger,
) *MenuService {
	return &MenuService{
		repo:    repo,
		images:  images,
		cleaner: cleaner,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

const missingFields = "Missing required fields"

var menuMessages = map[string]string{
	"title.required":       "Title is required",
	"description.required": "Description is required",
	"category.required":    "Category is required",
	"price.required":       "Price is required",
	"image.required":       "Image is required",
}

// CreateMenuItemInput is the decoded multipart form. Price arrives as text.
type CreateMenuItemInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Price       string `json:"price" validate:"required"`
	Image       []byte `json:"image" validate:"required"`
}

// UpdateMenuItemInput accepts the price as a JSON number or a numeric string.
type UpdateMenuItemInput struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Category    string      `json:"category" validate:"required"`
	Price       json.Number `json:"price" validate:"required"`
}

func validateMenuInput(in interface{}) error {
	err := common.ValidateStruct(in, menuMessages)
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		verr.Message = missingFields
	}
	return err
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		msg := "Price must be a positive number"
		return 0, common.NewValidationError(msg, common.FieldError{Field: "price", Message: msg})
	}
	return price, nil
}

// List returns the menu newest first, from the cache when it is warm.
func (s *MenuService) List(ctx context.Context) ([]model.MenuItem, error) {
	cached := s.cache != nil
	var gen int64
	if cached {
		var err error
		// The generation is read before the database so a concurrent write
		// leaves this listing under a generation nobody reads again.
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn(ctx, "menu cache generation read failed", "error", err)
			cached = false
		}
	}
	if cached {
		items, ok, err := s.cache.Get(ctx, gen)
		if err != nil {
			s.logger.Warn(ctx, "menu cache read failed", "error", err)
		} else if ok {
			return items, nil
		}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}

	if cached {
		if err := s.cache.Set(ctx, gen, items); err != nil {
			s.logger.Warn(ctx, "menu cache write failed", "error", err)
		}
	}
	return items, nil
}

func (s *MenuService) Create(ctx context.Context, in CreateMenuItemInput) (*model.MenuItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if len(in.Image) == 0 {
		in.Image = nil
	}
	if err := validateMenuInput(in); err != nil {
		return nil, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(in.Image)
	if !strings.HasPrefix(mime.String(), "image/") {
		msg := "Image must be an image file"
		return nil, common.NewValidationError(msg, common.FieldError{Field: "image", Message: msg})
	}

	item := &model.MenuItem{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       price,
		Image:       s.storeImage(ctx, in.Title, mime, in.Image),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	s.invalidate(ctx)
	return item, nil
}

// storeImage uploads the image, falling back to an inline data URL when the host rejects it.
func (s *MenuService) storeImage(ctx context.Context, title string, mime *mimetype.MIME, data []byte) string {
	name := slug.Make(title)
	if name == "" {
		name = "item"
	}
	key := fmt.Sprintf("products/%s-%d-%s%s", name, s.now().UnixMilli(), uuid.NewString()[:8], mime.Extension())

	url, err := s.images.Upload(ctx, key, mime.String(), data)
	if err != nil {
		s.logger.Warn(ctx, "image upload failed, storing inline", "key", key, "error", err)
		return storage.DataURL(mime.String(), data)
	}
	return url
}

func (s *MenuService) Update(ctx context.Context, id int64, in UpdateMenuItemInput) (*model.MenuItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateMenuInput(in); err != nil {
		return nil, err
	}
	price, err := parsePrice(in.Price.String())
	if err != nil {
		return nil, err
	}

	item := &model.MenuItem{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       price,
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.WithMessage(common.ErrNotFound, "Product not found")
		}
		return nil, fmt.Errorf("failed to update menu item %d: %w", id, err)
	}
	s.invalidate(ctx)
	return item, nil
}

// Delete removes the row first; the hosted image is cleaned up best effort.
func (s *MenuService) Delete(ctx context.Context, id int64) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.WithMessage(common.ErrNotFound, "Product not found")
		}
		return fmt.Errorf("failed to load menu item %d: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.WithMessage(common.ErrNotFound, "Product not found")
		}
		return fmt.Errorf("failed to delete menu item %d: %w", id, err)
	}
	s.invalidate(ctx)

	if !item.HasInlineImage() && item.Image != "" {
		if err := s.cleaner.Schedule(ctx, item.Image); err != nil {
			s.logger.Error(ctx, "image cleanup failed", "item_id", id, "image", item.Image, "error", err)
		}
	}
	return nil
}

func (s *MenuService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn(ctx, "menu cache invalidation failed", "error", err)
	}
}
