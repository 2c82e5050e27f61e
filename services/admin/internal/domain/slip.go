package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Slip is a parsed payment slip data URL.
type Slip struct {
	BookingID string
	MediaType string
	Data      string
}

func ParseSlip(bookingID, dataURL string) (*Slip, error) {
	if dataURL == "" {
		return nil, ErrNoSlip
	}
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URL", ErrInvalidSlip)
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidSlip)
	}
	mediaType, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return nil, fmt.Errorf("%w: unsupported encoding %q", ErrInvalidSlip, enc)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return &Slip{BookingID: bookingID, MediaType: mediaType, Data: data}, nil
}

func (s *Slip) IsPDF() bool {
	return s.MediaType == "application/pdf"
}

// FileName is the download name for PDFs; images are viewed inline.
func (s *Slip) FileName() string {
	if s.IsPDF() {
		return "payment-slip-" + s.BookingID + ".pdf"
	}
	return ""
}

func (s *Slip) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlip, err)
	}
	return raw, nil
}
