// Package qrcodec turns attendance payloads into QR images and reads them back
// from scanner uploads.
package qrcodec

import (
	"errors"
	"fmt"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	qrencode "github.com/skip2/go-qrcode"
	"github.com/straye-as/qr-attendance/internal/domain"
	"go.uber.org/zap"
)

// DefaultSize is the edge length in pixels of generated card codes
const DefaultSize = 256

// DefaultMaxDimension bounds the longest side of an upload before decoding
const DefaultMaxDimension = 2000

// Codec encodes card payloads and decodes uploaded images
type Codec struct {
	size         int
	maxDimension int
	logger       *zap.Logger
}

// NewCodec creates a Codec. Non-positive sizes fall back to the defaults.
func NewCodec(size, maxDimension int, logger *zap.Logger) *Codec {
	if size <= 0 {
		size = DefaultSize
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Codec{
		size:         size,
		maxDimension: maxDimension,
		logger:       logger,
	}
}

// Encode renders text as a PNG QR code
func (c *Codec) Encode(text string) ([]byte, error) {
	png, err := qrencode.Encode(text, qrencode.Medium, c.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// Decode reads the first QR code found in an uploaded image.
// It returns domain.ErrNoCodeDetected when the picture is readable but holds no code,
// and an error wrapping domain.ErrProcessing when the bytes are not an image at all.
func (c *Codec) Decode(data []byte, filename string) (string, error) {
	img, err := decodeImage(data, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}
	img = downscale(img, c.maxDimension)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	result, err := zxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		var readerErr gozxing.ReaderException
		if errors.As(err, &readerErr) {
			c.logger.Debug("no QR code in upload",
				zap.String("filename", filename),
				zap.Error(err),
			)
			return "", domain.ErrNoCodeDetected
		}
		return "", fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}

	return result.GetText(), nil
}
