// Package qrpayload reads and writes the text carried by an attendance QR code.
//
// The wire format is a handful of "Key: Value" lines:
//
//	Name: M.Abinaya
//	Department: Bsc.CS
//	Year: 3rd year
//	Date: 2025-09-07
package qrpayload

import (
	"fmt"
	"strings"

	"github.com/straye-as/qr-attendance/internal/domain"
)

// Field keys, lower-cased as stored in Payload.Fields
const (
	KeyName       = "name"
	KeyDepartment = "department"
	KeyYear       = "year"
	KeyDate       = "date"
)

// Payload is a parsed QR text. Name, Department and Year hold "Unknown" when the
// code did not carry the key at all.
type Payload struct {
	Name       string
	Department string
	Year       string
	// Date is the card date as printed; empty when the code carried none
	Date   string
	Fields map[string]string
}

// Parse is total: any input, including the empty string, yields a Payload.
// Lines without a colon are skipped and a repeated key keeps its last value.
func Parse(text string) Payload {
	fields := make(map[string]string)

	normalized := strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	for _, line := range strings.Split(normalized, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	return Payload{
		Name:       valueOrUnknown(fields, KeyName),
		Department: valueOrUnknown(fields, KeyDepartment),
		Year:       valueOrUnknown(fields, KeyYear),
		Date:       fields[KeyDate],
		Fields:     fields,
	}
}

// Format renders the four-line card payload for an identity on a date (YYYY-MM-DD)
func Format(identity domain.StudentIdentity, date string) string {
	return fmt.Sprintf("Name: %s\nDepartment: %s\nYear: %s\nDate: %s",
		identity.Name, identity.Department, identity.Year, date)
}

func valueOrUnknown(fields map[string]string, key string) string {
	if v, ok := fields[key]; ok {
		return v
	}
	return domain.UnknownValue
}
