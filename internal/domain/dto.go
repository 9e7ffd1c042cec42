package domain

// ScanResultDTO is the data block of a successful scan response
type ScanResultDTO struct {
	Name            string `json:"name"`
	Department      string `json:"department"`
	Year            string `json:"year"`
	ScannerName     string `json:"scanner_name"`
	ScannerLocation string `json:"scanner_location"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	AlreadyScanned  bool   `json:"already_scanned"`
}

// ScanResponse wraps ScanResultDTO
type ScanResponse struct {
	Success bool          `json:"success"`
	Data    ScanResultDTO `json:"data"`
}

// AttendanceRecordDTO is the JSON form of a ledger entry
type AttendanceRecordDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Department      string `json:"department"`
	Year            string `json:"year"`
	ScannerName     string `json:"scanner_name"`
	ScannerLocation string `json:"scanner_location"`
	ScannerDevice   string `json:"scanner_device"`
	ScanDate        string `json:"scan_date"`
	ScanTime        string `json:"scan_time"`
	CreatedAt       string `json:"created_at"`
}

// RecordListResponse is returned by the records API
type RecordListResponse struct {
	Date    string                `json:"date,omitempty"`
	Count   int                   `json:"count"`
	Records []AttendanceRecordDTO `json:"records"`
}

// CardDTO is the view model of the identity card page
type CardDTO struct {
	Name       string
	Department string
	Year       string
	Date       string
	QRBase64   string
	InTime     string
	OutTime    string
}

// ScanInput is what the scan handler extracts from a request
type ScanInput struct {
	Image           []byte
	Filename        string
	ScannerName     string
	ScannerLocation string
	ScannerDevice   string
}

// ScanOutcome is the result of reconciling one scan against the ledger
type ScanOutcome struct {
	Record          *AttendanceRecord
	Created         bool
	Name            string
	Department      string
	Year            string
	ScannerName     string
	ScannerLocation string
}
