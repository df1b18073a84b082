package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	key := NewKey("/tryon/42/", "Foto.JPG")

	assert.True(t, strings.HasPrefix(key, "tryon/42/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.NotEqual(t, key, NewKey("tryon/42", "Foto.JPG"))
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(1024, 2048))
	assert.NoError(t, ValidateFileSize(2048, 2048))
	assert.Error(t, ValidateFileSize(2049, 2048))
}

func TestValidateContentType(t *testing.T) {
	allowed := []string{"image/jpeg", "image/png"}

	assert.NoError(t, ValidateContentType("image/png", allowed))
	assert.Error(t, ValidateContentType("application/pdf", allowed))
}
