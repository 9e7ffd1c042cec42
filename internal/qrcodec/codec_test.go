package qrcodec_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/qrcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const samplePayload = "Name: J.Doe\nDepartment: Bsc.CS\nYear: 2nd year\nDate: 2025-01-01"

func newTestCodec() *qrcodec.Codec {
	return qrcodec.NewCodec(0, 0, zap.NewNop())
}

func blankPNG(t *testing.T, w, h int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCodec_EncodeProducesPNG(t *testing.T) {
	codec := newTestCodec()

	data, err := codec.Encode(samplePayload)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, qrcodec.DefaultSize, img.Bounds().Dx())
	assert.Equal(t, qrcodec.DefaultSize, img.Bounds().Dy())
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	data, err := codec.Encode(samplePayload)
	require.NoError(t, err)

	text, err := codec.Decode(data, "card.png")
	require.NoError(t, err)
	assert.Equal(t, samplePayload, text)
}

func TestCodec_DecodeJPEG(t *testing.T) {
	codec := newTestCodec()

	data, err := codec.Encode(samplePayload)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))

	text, err := codec.Decode(buf.Bytes(), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, samplePayload, text)
}

func TestCodec_DecodeLargeImageIsDownscaled(t *testing.T) {
	codec := qrcodec.NewCodec(0, 800, zap.NewNop())

	data, err := codec.Encode(samplePayload)
	require.NoError(t, err)
	src, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// Place the code on a large white canvas, as a phone photo would
	canvas := image.NewRGBA(image.Rect(0, 0, 2400, 1800))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.NearestNeighbor.Scale(canvas, image.Rect(600, 300, 1800, 1500), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, canvas))

	text, err := codec.Decode(buf.Bytes(), "large.png")
	require.NoError(t, err)
	assert.Equal(t, samplePayload, text)
}

func TestCodec_DecodeNoCode(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.Decode(blankPNG(t, 200, 200), "blank.png")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoCodeDetected)
}

func TestCodec_DecodeNotAnImage(t *testing.T) {
	codec := newTestCodec()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty upload", data: []byte{}},
		{name: "plain text", data: []byte("definitely not an image")},
		{name: "truncated png header", data: []byte{0x89, 'P', 'N', 'G', '\r', '\n'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.data, "upload.bin")

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrProcessing)
			assert.NotErrorIs(t, err, domain.ErrNoCodeDetected)
		})
	}
}
