package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	adID := uuid.New()
	key := ObjectKey(adID, "Maison Cotonou.JPG")

	assert.True(t, strings.HasPrefix(key, "photos/"+adID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ObjectKey(adID, "Maison Cotonou.JPG"))
}

func TestDisabledStore(t *testing.T) {
	_, err := DisabledStore{}.Upload(context.Background(), "k", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrDisabled)
}
