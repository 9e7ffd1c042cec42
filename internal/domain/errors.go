package domain

import "errors"

// Scan and workbook errors. Handlers classify them with errors.Is.
var (
	// ErrNoImageProvided is returned when the upload carries no qr_image file
	ErrNoImageProvided = errors.New("no image uploaded")

	// ErrNoCodeDetected is returned when the image decodes but holds no QR code
	ErrNoCodeDetected = errors.New("no QR code found in image")

	// ErrProcessing wraps any other failure while decoding or recording a scan
	ErrProcessing = errors.New("error processing QR code")

	// ErrFileIO is returned when the attendance workbook cannot be opened or saved
	ErrFileIO = errors.New("workbook file I/O failure")

	// ErrInvalidDate is returned for a malformed date filter
	ErrInvalidDate = errors.New("invalid date")
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// Client-facing messages for the scan endpoint
const (
	MessageNoImage       = "No image uploaded"
	MessageNoCode        = "No QR code found in image"
	MessageMethodNotPOST = "Only POST method allowed"
)
