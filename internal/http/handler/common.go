package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/straye-as/qr-attendance/internal/domain"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds the parsed HTML views. Every page shares layout.html.
var pages = map[string]*template.Template{
	"card":    parsePage("card.html"),
	"scanner": parsePage("scanner.html"),
	"records": parsePage("records.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// pageData is the common view model of every HTML page
type pageData struct {
	AppName string
	Title   string
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondWithError sends {"error": message}
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.ErrorResponse{Error: message})
}

// renderPage executes a page template into a buffer first, so a template error still
// produces a clean 500 instead of a half-written page.
func renderPage(w http.ResponseWriter, logger *zap.Logger, page string, data interface{}) {
	tmpl, ok := pages[page]
	if !ok {
		logger.Error("unknown page template", zap.String("page", page))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page+".html", data); err != nil {
		logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
