package service

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/qrpayload"
	"go.uber.org/zap"
)

// NotMarked is shown for in/out times on the card
const NotMarked = "Not marked"

// QREncoder renders text as a PNG QR code
type QREncoder interface {
	Encode(text string) ([]byte, error)
}

// CardService builds the identity card shown on the index page
type CardService struct {
	encoder  QREncoder
	identity domain.StudentIdentity
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewCardService creates a new CardService for a fixed identity
func NewCardService(encoder QREncoder, identity domain.StudentIdentity, location *time.Location, logger *zap.Logger) *CardService {
	if location == nil {
		location = time.Local
	}
	return &CardService{
		encoder:  encoder,
		identity: identity,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces time.Now
func (s *CardService) SetClock(now func() time.Time) {
	s.now = now
}

// Card returns the card without a QR image
func (s *CardService) Card() *domain.CardDTO {
	return &domain.CardDTO{
		Name:       s.identity.Name,
		Department: s.identity.Department,
		Year:       s.identity.Year,
		Date:       s.today(),
		InTime:     NotMarked,
		OutTime:    NotMarked,
	}
}

// GenerateCard returns the card with a base64 PNG QR code for today's date
func (s *CardService) GenerateCard() (*domain.CardDTO, error) {
	card := s.Card()

	payload := qrpayload.Format(s.identity, card.Date)
	png, err := s.encoder.Encode(payload)
	if err != nil {
		s.logger.Error("Failed to generate card QR code", zap.Error(err))
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	card.QRBase64 = base64.StdEncoding.EncodeToString(png)
	s.logger.Debug("Generated card QR code",
		zap.String("name", s.identity.Name),
		zap.String("date", card.Date),
		zap.Int("bytes", len(png)),
	)
	return card, nil
}

func (s *CardService) today() string {
	return s.now().In(s.location).Format(domain.DateLayout)
}
