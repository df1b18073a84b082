package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/storage"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/tryon"
	"gorm.io/gorm"
)

var (
	ErrExternalService  = errors.New("external service failed")
	ErrTryOnRateLimited = errors.New("too many try-on requests")
	ErrInvalidImage     = errors.New("image must be a JPEG, PNG or WEBP under 10MB")
)

const (
	MaxTryOnImageSize = 10 << 20

	tryOnFolder       = "tryon"
	tryOnPhotoURLTTL  = 15 * time.Minute
	tryOnRateWindow   = time.Minute
	tryOnRateKeyFmt   = "tryon:rate:%d"
	tryOnDefaultLimit = 5
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// TryOnImage is the customer photo as received from the upload.
type TryOnImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

type TryOnResult struct {
	ProductID uint   `json:"product_id"`
	ImageURL  string `json:"image_url"`
	EventID   uint   `json:"event_id"`
}

type TryOnService interface {
	Generate(ctx context.Context, userID, productID uint, image TryOnImage) (*TryOnResult, error)
	RecordEvent(userID *uint, productID uint) (*model.TryOnEvent, error)
}

type tryOnService struct {
	productRepo repository.ProductRepository
	tryOnRepo   repository.TryOnRepository
	storage     ObjectStorage
	generator   TryOnGenerator
	limiter     RateLimiter
	perMinute   int
	timeout     time.Duration
}

// NewTryOnService wires the try-on flow. limiter may be nil, which
// disables the per-user rate limit.
func NewTryOnService(
	productRepo repository.ProductRepository,
	tryOnRepo repository.TryOnRepository,
	objectStorage ObjectStorage,
	generator TryOnGenerator,
	limiter RateLimiter,
	perMinute int,
	timeout time.Duration,
) TryOnService {
	if perMinute <= 0 {
		perMinute = tryOnDefaultLimit
	}
	return &tryOnService{
		productRepo: productRepo,
		tryOnRepo:   tryOnRepo,
		storage:     objectStorage,
		generator:   generator,
		limiter:     limiter,
		perMinute:   perMinute,
		timeout:     timeout,
	}
}

// Generate dresses the customer's photo with the product garment. Only a
// successful generation is recorded as a try-on event.
func (s *tryOnService) Generate(ctx context.Context, userID, productID uint, image TryOnImage) (*TryOnResult, error) {
	logger.Info("Starting try-on generation", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"bytes":      len(image.Data),
	})

	if len(image.Data) == 0 ||
		storage.ValidateFileSize(int64(len(image.Data)), MaxTryOnImageSize) != nil ||
		storage.ValidateContentType(image.ContentType, allowedImageTypes) != nil {
		return nil, ErrInvalidImage
	}

	product, err := s.activeProduct(productID)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, userID); err != nil {
		return nil, err
	}

	key := storage.NewKey(fmt.Sprintf("%s/%d", tryOnFolder, userID), image.Filename)
	if err := s.storage.PutObject(ctx, key, image.ContentType, image.Data); err != nil {
		logger.Error("Failed to upload try-on photo", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("%w: upload photo: %v", ErrExternalService, err)
	}
	photoURL, err := s.storage.PresignGet(ctx, key, tryOnPhotoURLTTL)
	if err != nil {
		logger.Error("Failed to presign try-on photo", err, map[string]interface{}{
			"user_id": userID,
			"key":     key,
		})
		return nil, fmt.Errorf("%w: presign photo: %v", ErrExternalService, err)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	imageURL, err := s.generator.Generate(genCtx, tryon.Request{
		PersonImageURL:  photoURL,
		GarmentImageURL: product.ImageURL,
		Category:        garmentCategory(product.Category),
		Description:     product.Name,
	})
	if err != nil {
		logger.Error("Try-on generation failed", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"elapsed_ms": time.Since(started).Milliseconds(),
		})
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	event := &model.TryOnEvent{ProductID: productID, UserID: &userID, ResultURL: imageURL}
	if err := s.tryOnRepo.Create(event); err != nil {
		return nil, err
	}

	logger.Info("Try-on generated", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})
	return &TryOnResult{
		ProductID: productID,
		ImageURL:  imageURL,
		EventID:   event.ID,
	}, nil
}

// RecordEvent appends a try-on event for BI. userID is nil for anonymous
// visitors.
func (s *tryOnService) RecordEvent(userID *uint, productID uint) (*model.TryOnEvent, error) {
	if _, err := s.activeProduct(productID); err != nil {
		return nil, err
	}

	event := &model.TryOnEvent{ProductID: productID, UserID: userID}
	if err := s.tryOnRepo.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *tryOnService) activeProduct(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Active {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// checkRate fails open when the limiter itself errors.
func (s *tryOnService) checkRate(ctx context.Context, userID uint) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf(tryOnRateKeyFmt, userID), s.perMinute, tryOnRateWindow)
	if err != nil {
		logger.Warn("Try-on rate limiter unavailable", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}
	if !allowed {
		logger.Warn("Try-on rate limit exceeded", map[string]interface{}{
			"user_id": userID,
			"limit":   s.perMinute,
		})
		return ErrTryOnRateLimited
	}
	return nil
}

// garmentCategory maps catalog sections to the model's garment category.
func garmentCategory(c model.ProductCategory) string {
	switch c {
	case model.CategoryMen, model.CategoryWomen:
		return tryon.CategoryUpperBody
	default:
		return tryon.CategoryAccessories
	}
}
