package validation

import (
	"encoding/base64"
	"strings"

	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/pkg/models"
)

const (
	imageDataURIPrefix = "data:image/"
	base64Marker       = "base64"
)

// Client-facing messages for payload failures
const (
	MsgNoImage       = "No image received."
	MsgInvalidFormat = "Invalid image format."
)

// DataURIDecoder turns `data:image/<subtype>;base64,<data>` strings into
// image payloads
type DataURIDecoder struct {
	allowedSubtypes []string
}

// NewDataURIDecoder accepts any image subtype
func NewDataURIDecoder() *DataURIDecoder {
	return &DataURIDecoder{}
}

// NewDataURIDecoderWithSubtypes restricts accepted MIME subtypes, e.g. "png", "jpeg"
func NewDataURIDecoderWithSubtypes(subtypes ...string) *DataURIDecoder {
	return &DataURIDecoder{allowedSubtypes: subtypes}
}

// Decode validates and decodes a data-URI image
func (d *DataURIDecoder) Decode(dataURI string) (*models.ImagePayload, error) {
	if strings.TrimSpace(dataURI) == "" {
		return nil, apperrors.NewMissingInputError(MsgNoImage, nil)
	}
	if !strings.HasPrefix(dataURI, imageDataURIPrefix) {
		return nil, apperrors.NewInvalidFormatError(MsgInvalidFormat, nil)
	}

	colon := strings.IndexByte(dataURI, ':')
	semi := strings.IndexByte(dataURI, ';')
	comma := strings.IndexByte(dataURI, ',')
	if semi < colon || comma < semi {
		return nil, apperrors.NewInvalidFormatError(MsgInvalidFormat, nil)
	}
	if dataURI[semi+1:comma] != base64Marker {
		return nil, apperrors.NewInvalidFormatError(MsgInvalidFormat, nil)
	}

	mimeType := dataURI[colon+1 : semi]
	if !d.isSubtypeAllowed(strings.TrimPrefix(mimeType, "image/")) {
		return nil, apperrors.NewInvalidFormatError(MsgInvalidFormat, nil)
	}

	raw, err := base64.StdEncoding.DecodeString(dataURI[comma+1:])
	if err != nil {
		return nil, apperrors.NewInvalidFormatError(MsgInvalidFormat, err)
	}
	if len(raw) == 0 {
		return nil, apperrors.NewInvalidFormatError(MsgInvalidFormat, nil)
	}

	return &models.ImagePayload{MIMEType: mimeType, Data: raw}, nil
}

// isSubtypeAllowed returns true if no subtype restrictions are set
func (d *DataURIDecoder) isSubtypeAllowed(subtype string) bool {
	if subtype == "" {
		return false
	}
	if len(d.allowedSubtypes) == 0 {
		return true
	}
	for _, allowed := range d.allowedSubtypes {
		if strings.EqualFold(subtype, allowed) {
			return true
		}
	}
	return false
}

// DecodeImagePayload decodes with the default decoder
func DecodeImagePayload(dataURI string) (*models.ImagePayload, error) {
	return NewDataURIDecoder().Decode(dataURI)
}

// EncodeDataURI is the inverse of DecodeImagePayload
func EncodeDataURI(p *models.ImagePayload) string {
	return "data:" + p.MIMEType + ";" + base64Marker + "," + base64.StdEncoding.EncodeToString(p.Data)
}
