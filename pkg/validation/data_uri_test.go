package validation

import (
	"math/rand"
	"testing"

	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Valid(t *testing.T) {
	payload, err := DecodeImagePayload("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)

	assert.Equal(t, "image/png", payload.MIMEType)
	assert.Equal(t, []byte("hello"), payload.Data)
}

func TestDecode_MissingInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := DecodeImagePayload(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingInput), "input %q", in)
		assert.Equal(t, MsgNoImage, apperrors.PublicMessage(err, ""))
	}
}

func TestDecode_InvalidFormat(t *testing.T) {
	invalid := []string{
		"not-a-data-uri",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png,aGVsbG8=",
		"data:image/png;base64aGVsbG8=",
		"data:image/png;utf8,hello",
		"data:image/;base64,aGVsbG8=",
		"data:image/png;base64,***",
		"data:image/png;base64,",
		"https://example.com/plant.png",
	}

	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			_, err := DecodeImagePayload(in)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFormat))
		})
	}
}

func TestDecode_SubtypeRestriction(t *testing.T) {
	decoder := NewDataURIDecoderWithSubtypes("png", "jpeg")

	_, err := decoder.Decode("data:image/JPEG;base64,aGVsbG8=")
	assert.NoError(t, err)

	_, err = decoder.Decode("data:image/webp;base64,aGVsbG8=")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFormat))
}

func TestDecode_AnySubtypeByDefault(t *testing.T) {
	payload, err := DecodeImagePayload("data:image/svg+xml;base64,PHN2Zy8+")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", payload.MIMEType)
}

func TestDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	mimeTypes := []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml"}

	for i := 0; i < 200; i++ {
		data := make([]byte, 1+rng.Intn(512))
		rng.Read(data)
		original := EncodeDataURI(&models.ImagePayload{
			MIMEType: mimeTypes[i%len(mimeTypes)],
			Data:     data,
		})

		payload, err := DecodeImagePayload(original)
		require.NoError(t, err)
		assert.Equal(t, original, EncodeDataURI(payload))
		assert.Equal(t, data, payload.Data)
	}
}
