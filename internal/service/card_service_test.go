package service_test

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/qrcodec"
	"github.com/straye-as/qr-attendance/internal/service"
	"github.com/straye-as/qr-attendance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var cardIdentity = domain.StudentIdentity{Name: "M.Abinaya", Department: "Bsc.CS", Year: "3rd year"}

func TestCardService_Card(t *testing.T) {
	svc := service.NewCardService(qrcodec.NewCodec(0, 0, zap.NewNop()), cardIdentity, time.UTC, zap.NewNop())
	svc.SetClock(testutil.FixedClock(time.Date(2025, 9, 7, 23, 59, 0, 0, time.UTC)))

	card := svc.Card()

	assert.Equal(t, "M.Abinaya", card.Name)
	assert.Equal(t, "Bsc.CS", card.Department)
	assert.Equal(t, "3rd year", card.Year)
	assert.Equal(t, "2025-09-07", card.Date)
	assert.Equal(t, service.NotMarked, card.InTime)
	assert.Equal(t, service.NotMarked, card.OutTime)
	assert.Empty(t, card.QRBase64)
}

func TestCardService_GenerateCardRoundTrip(t *testing.T) {
	codec := qrcodec.NewCodec(0, 0, zap.NewNop())
	svc := service.NewCardService(codec, cardIdentity, time.UTC, zap.NewNop())
	svc.SetClock(testutil.FixedClock(time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)))

	card, err := svc.GenerateCard()
	require.NoError(t, err)
	require.NotEmpty(t, card.QRBase64)

	png, err := base64.StdEncoding.DecodeString(card.QRBase64)
	require.NoError(t, err)

	text, err := codec.Decode(png, "card.png")
	require.NoError(t, err)
	assert.Equal(t, "Name: M.Abinaya\nDepartment: Bsc.CS\nYear: 3rd year\nDate: 2025-09-07", text)
}

func TestCardService_UsesConfiguredTimezone(t *testing.T) {
	tz := time.FixedZone("UTC+5", 5*60*60)
	svc := service.NewCardService(qrcodec.NewCodec(0, 0, zap.NewNop()), cardIdentity, tz, zap.NewNop())
	svc.SetClock(testutil.FixedClock(time.Date(2025, 9, 7, 21, 0, 0, 0, time.UTC)))

	assert.Equal(t, "2025-09-08", svc.Card().Date)
}

type brokenEncoder struct{}

func (brokenEncoder) Encode(string) ([]byte, error) {
	return nil, errors.New("content too long")
}

func TestCardService_EncoderFailure(t *testing.T) {
	svc := service.NewCardService(brokenEncoder{}, cardIdentity, time.UTC, zap.NewNop())

	_, err := svc.GenerateCard()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "content too long")
}
