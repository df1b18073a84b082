package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/pkg/tryon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type tryOnFixture struct {
	db        *gorm.DB
	service   TryOnService
	storage   *fakeStorage
	generator *fakeGenerator
	limiter   *fakeLimiter
	user      *model.User
	product   *model.Product
}

func newTryOnFixture(t *testing.T, withLimiter bool) *tryOnFixture {
	t.Helper()
	conn := newTestDB(t)
	f := &tryOnFixture{
		db:        conn,
		storage:   newFakeStorage(),
		generator: &fakeGenerator{url: "https://replicate.delivery/out/result.png"},
		limiter:   &fakeLimiter{allow: true},
		user:      createUser(t, conn, "cliente@moda.cl", model.RoleCustomer),
		product:   createProduct(t, conn, "Chaqueta Nuptse", 189990, 3),
	}

	var limiter RateLimiter
	if withLimiter {
		limiter = f.limiter
	}
	f.service = NewTryOnService(
		repository.NewProductRepository(conn),
		repository.NewTryOnRepository(conn),
		f.storage,
		f.generator,
		limiter,
		5,
		time.Second,
	)
	return f
}

func (f *tryOnFixture) events(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.TryOnEvent{}).Count(&n).Error)
	return n
}

func selfie() TryOnImage {
	return TryOnImage{Filename: "yo.jpg", ContentType: "image/jpeg", Data: []byte("\xff\xd8\xff\xe0fake-jpeg")}
}

func TestTryOnService_Generate(t *testing.T) {
	f := newTryOnFixture(t, true)

	result, err := f.service.Generate(context.Background(), f.user.ID, f.product.ID, selfie())
	require.NoError(t, err)

	assert.Equal(t, "https://replicate.delivery/out/result.png", result.ImageURL)
	assert.NotZero(t, result.EventID)

	require.Len(t, f.storage.objects, 1)
	for key := range f.storage.objects {
		assert.True(t, strings.HasPrefix(key, "tryon/"), key)
		assert.True(t, strings.HasSuffix(f.generator.last.PersonImageURL, "?signature=abc"))
	}
	assert.Equal(t, f.product.ImageURL, f.generator.last.GarmentImageURL)
	assert.Equal(t, tryon.CategoryUpperBody, f.generator.last.Category)
	assert.Equal(t, []string{fmt.Sprintf("tryon:rate:%d", f.user.ID)}, f.limiter.keys)

	var event model.TryOnEvent
	require.NoError(t, f.db.First(&event, result.EventID).Error)
	assert.Equal(t, f.product.ID, event.ProductID)
	assert.Equal(t, result.ImageURL, event.ResultURL)
}

func TestTryOnService_GenerationFailureRecordsNoEvent(t *testing.T) {
	f := newTryOnFixture(t, false)
	f.generator.err = tryon.ErrGenerationFailed

	_, err := f.service.Generate(context.Background(), f.user.ID, f.product.ID, selfie())
	assert.ErrorIs(t, err, ErrExternalService)
	assert.Zero(t, f.events(t))
}

func TestTryOnService_UploadFailure(t *testing.T) {
	f := newTryOnFixture(t, false)
	f.storage.putErr = errors.New("access denied")

	_, err := f.service.Generate(context.Background(), f.user.ID, f.product.ID, selfie())
	assert.ErrorIs(t, err, ErrExternalService)
	assert.Zero(t, f.generator.calls)
	assert.Zero(t, f.events(t))
}

func TestTryOnService_RateLimited(t *testing.T) {
	f := newTryOnFixture(t, true)
	f.limiter.allow = false

	_, err := f.service.Generate(context.Background(), f.user.ID, f.product.ID, selfie())
	assert.ErrorIs(t, err, ErrTryOnRateLimited)
	assert.Zero(t, f.generator.calls)
	assert.Empty(t, f.storage.objects)
}

func TestTryOnService_LimiterErrorFailsOpen(t *testing.T) {
	f := newTryOnFixture(t, true)
	f.limiter.allow = false
	f.limiter.err = errors.New("redis: connection refused")

	_, err := f.service.Generate(context.Background(), f.user.ID, f.product.ID, selfie())
	require.NoError(t, err)
	assert.Equal(t, 1, f.generator.calls)
}

func TestTryOnService_RejectsBadInput(t *testing.T) {
	f := newTryOnFixture(t, false)
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", f.product.ID).Update("active", false).Error)

	_, err := f.service.Generate(context.Background(), f.user.ID, f.product.ID, TryOnImage{Filename: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = f.service.Generate(context.Background(), f.user.ID, f.product.ID, TryOnImage{Filename: "a.jpg", ContentType: "image/jpeg"})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = f.service.Generate(context.Background(), f.user.ID, f.product.ID, selfie())
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Zero(t, f.generator.calls)
}

func TestTryOnService_RecordEvent(t *testing.T) {
	f := newTryOnFixture(t, false)

	event, err := f.service.RecordEvent(nil, f.product.ID)
	require.NoError(t, err)
	assert.Nil(t, event.UserID)

	_, err = f.service.RecordEvent(&f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.events(t))

	_, err = f.service.RecordEvent(nil, 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGarmentCategory(t *testing.T) {
	assert.Equal(t, tryon.CategoryUpperBody, garmentCategory(model.CategoryMen))
	assert.Equal(t, tryon.CategoryUpperBody, garmentCategory(model.CategoryWomen))
	assert.Equal(t, tryon.CategoryAccessories, garmentCategory(model.CategoryAccessories))
}
