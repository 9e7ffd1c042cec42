package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/mapper"
	"github.com/straye-as/qr-attendance/internal/service"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartMemory is the part of an upload kept in memory before spilling to disk
const multipartMemory = 8 << 20

// AttendanceHandler serves the scanner, scan upload, records and workbook download
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
	maxUploadMB       int64
	appName           string
	logger            *zap.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler
func NewAttendanceHandler(attendanceService *service.AttendanceService, maxUploadMB int64, appName string, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		maxUploadMB:       maxUploadMB,
		appName:           appName,
		logger:            logger,
	}
}

type scannerPage struct {
	pageData
	MaxUploadMB int64
}

// ScannerPage renders the upload form
// @Summary Scanner page
// @Tags Pages
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /scanner/ [get]
func (h *AttendanceHandler) ScannerPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.logger, "scanner", scannerPage{
		pageData:    pageData{AppName: h.appName, Title: "QR Scanner"},
		MaxUploadMB: h.maxUploadMB,
	})
}

// Scan records attendance from an uploaded QR image
// @Summary Scan a QR code image
// @Description Decodes the uploaded image and marks attendance for today. A repeat scan on the same day returns already_scanned=true.
// @Tags Attendance
// @Accept multipart/form-data
// @Produce json
// @Param qr_image formData file true "Photo or screenshot of the QR card"
// @Param scanner_name formData string false "Name of the scanning station"
// @Param scanner_location formData string false "Location of the scanning station"
// @Success 200 {object} domain.ScanResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 405 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /scan-qr/ [post]
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondWithError(w, http.StatusMethodNotAllowed, domain.MessageMethodNotPOST)
		return
	}

	maxBytes := h.maxUploadMB * 1024 * 1024
	if r.ContentLength > maxBytes {
		h.respondTooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			h.respondTooLarge(w)
			return
		}
		respondWithError(w, http.StatusBadRequest, domain.MessageNoImage)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("qr_image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, domain.MessageNoImage)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read uploaded image", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Error processing QR code: "+err.Error())
		return
	}

	outcome, err := h.attendanceService.Scan(r.Context(), domain.ScanInput{
		Image:           image,
		Filename:        header.Filename,
		ScannerName:     r.FormValue("scanner_name"),
		ScannerLocation: r.FormValue("scanner_location"),
		ScannerDevice:   r.UserAgent(),
	})
	if err != nil {
		h.handleScanError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.ScanResponse{
		Success: true,
		Data:    mapper.ToScanResultDTO(outcome),
	})
}

func (h *AttendanceHandler) respondTooLarge(w http.ResponseWriter) {
	respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Image too large: maximum size is %dMB", h.maxUploadMB))
}

// isBodyTooLarge reports whether err came from the MaxBytesReader. Older multipart
// errors flatten their cause into text, hence the message check.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (h *AttendanceHandler) handleScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoImageProvided):
		respondWithError(w, http.StatusBadRequest, domain.MessageNoImage)
	case errors.Is(err, domain.ErrNoCodeDetected):
		respondWithError(w, http.StatusBadRequest, domain.MessageNoCode)
	default:
		respondWithError(w, http.StatusInternalServerError,
			"Error processing QR code: "+service.ErrorCause(err, domain.ErrProcessing))
	}
}

// DownloadWorkbook streams the attendance workbook as an attachment
// @Summary Download the attendance workbook
// @Tags Attendance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "attendance_records_<date>.xlsx"
// @Failure 500 {object} domain.ErrorResponse
// @Router /download-excel/ [get]
func (h *AttendanceHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.attendanceService.WorkbookDownload()
	if err != nil {
		h.logger.Error("failed to read workbook for download", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError,
			"Error downloading file: "+service.ErrorCause(err, domain.ErrFileIO))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type recordsPage struct {
	pageData
	Date    string
	Records []domain.AttendanceRecordDTO
}

// RecordsPage renders the ledger, newest first
// @Summary Attendance records page
// @Tags Pages
// @Produce html
// @Param date query string false "Only records of this date (YYYY-MM-DD)"
// @Success 200 {string} string "HTML page"
// @Failure 400 {object} domain.ErrorResponse
// @Router /records/ [get]
func (h *AttendanceHandler) RecordsPage(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	records, ok := h.listRecords(w, r, date)
	if !ok {
		return
	}

	renderPage(w, h.logger, "records", recordsPage{
		pageData: pageData{AppName: h.appName, Title: "Attendance Records"},
		Date:     date,
		Records:  mapper.ToAttendanceRecordDTOs(records),
	})
}

// ListRecords returns the ledger as JSON, newest first
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param date query string false "Only records of this date (YYYY-MM-DD)"
// @Success 200 {object} domain.RecordListResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /api/v1/records [get]
func (h *AttendanceHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	records, ok := h.listRecords(w, r, date)
	if !ok {
		return
	}

	dtos := mapper.ToAttendanceRecordDTOs(records)
	respondJSON(w, http.StatusOK, domain.RecordListResponse{
		Date:    date,
		Count:   len(dtos),
		Records: dtos,
	})
}

func (h *AttendanceHandler) listRecords(w http.ResponseWriter, r *http.Request, date string) ([]domain.AttendanceRecord, bool) {
	records, err := h.attendanceService.ListRecords(r.Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			respondWithError(w, http.StatusBadRequest, "Invalid date: must be YYYY-MM-DD")
			return nil, false
		}
		h.logger.Error("failed to list attendance records", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Error loading attendance records")
		return nil, false
	}
	return records, true
}
