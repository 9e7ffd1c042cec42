package handler

import (
	"html/template"
	"net/http"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/service"
	"go.uber.org/zap"
)

// CardHandler serves the identity card page
type CardHandler struct {
	cardService *service.CardService
	appName     string
	logger      *zap.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(cardService *service.CardService, appName string, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		appName:     appName,
		logger:      logger,
	}
}

type cardPage struct {
	pageData
	Card      *domain.CardDTO
	QRDataURI template.URL
}

// Show renders the card without a QR code
// @Summary Identity card page
// @Tags Pages
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (h *CardHandler) Show(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.logger, "card", cardPage{
		pageData: pageData{AppName: h.appName, Title: "Student ID Card"},
		Card:     h.cardService.Card(),
	})
}

// Generate renders the card with a QR code for today's date
// @Summary Generate today's QR code
// @Tags Pages
// @Produce html
// @Success 200 {string} string "HTML page with embedded QR code"
// @Failure 500 {object} domain.ErrorResponse
// @Router / [post]
func (h *CardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	card, err := h.cardService.GenerateCard()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error generating QR code: "+err.Error())
		return
	}

	renderPage(w, h.logger, "card", cardPage{
		pageData: pageData{AppName: h.appName, Title: "Student ID Card"},
		Card:     card,
		// Base64 PNG produced by the codec, safe as a data URI
		QRDataURI: template.URL("data:image/png;base64," + card.QRBase64),
	})
}
