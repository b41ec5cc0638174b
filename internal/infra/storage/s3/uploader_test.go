package s3

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFor(t *testing.T) {
	tests := []struct {
		contentType string
		kind        Kind
		ok          bool
	}{
		{"image/jpeg", KindImage, true},
		{"IMAGE/PNG", KindImage, true},
		{" image/webp ", KindImage, true},
		{"video/mp4", KindVideo, true},
		{"video/webm", KindVideo, true},
		{"application/pdf", "", false},
		{"text/html", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		kind, ok := KindFor(tc.contentType)
		assert.Equal(t, tc.ok, ok, tc.contentType)
		if tc.ok {
			assert.Equal(t, tc.kind, kind, tc.contentType)
		}
	}
}

func TestObjectKeyNamespacing(t *testing.T) {
	key := objectKey("user-42", formats["image/png"])
	assert.Regexp(t, regexp.MustCompile(`^images/user-42/[0-9a-f-]{36}\.png$`), key)

	key = objectKey("user-42", formats["video/mp4"])
	assert.Regexp(t, regexp.MustCompile(`^videos/user-42/[0-9a-f-]{36}\.mp4$`), key)
}

func TestObjectKeySanitizesOwner(t *testing.T) {
	key := objectKey("../../../etc/passwd", formats["image/jpeg"])
	assert.Regexp(t, regexp.MustCompile(`^images/etc-passwd/[0-9a-f-]{36}\.jpg$`), key)

	key = objectKey("///", formats["image/jpeg"])
	assert.Regexp(t, regexp.MustCompile(`^images/anonymous/`), key)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", false, "key", "secret", "media", "", nil)
	assert.Error(t, err)

	_, err = NewClient("minio.local:9000", false, "key", "secret", "  ", "", nil)
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	client, err := NewClient("minio.local:9000", false, "key", "secret", "media", "https://cdn.example.com/", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/images/u1/a.png", client.publicURL("images/u1/a.png"))
}

func TestPublicURLFallsBackToEndpoint(t *testing.T) {
	client, err := NewClient("minio.local:9000", false, "key", "secret", "media", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000/media/images/u1/a.png", client.publicURL("images/u1/a.png"))
}

func TestUploadRejectsUnsupportedMedia(t *testing.T) {
	client, err := NewClient("minio.local:9000", false, "key", "secret", "media", "", nil)
	require.NoError(t, err)
	_, err = client.Upload(context.Background(), Upload{OwnerID: "u1", ContentType: "application/zip"})
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestNoopUploader(t *testing.T) {
	_, err := NoopUploader{}.Upload(context.Background(), Upload{OwnerID: "u1", ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
