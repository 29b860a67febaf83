// Package printing turns invoice HTML into PDF bytes. The production
// implementation drives headless Chrome over the DevTools protocol.
package printing

import (
	"context"
	"time"
)

// PDFRenderer is what the invoice layer depends on. Render blocks until the
// document is produced or ctx expires; Close tears down the backing browser.
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderRequest describes one document to print.
type RenderRequest struct {
	HTML      string        // body or full document; bare fragments get wrapped
	Title     string        // PDF metadata title
	Landscape bool          // portrait when false
	Margins   Margins       // page margins
	Timeout   time.Duration // zero means the renderer default
}

// RenderResult carries the printed document.
type RenderResult struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// Margins are page margins in millimeters.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins is the 15mm frame invoices are printed with.
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}
}

// Failure codes attached to RenderError.
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
)

// RenderError tags a rendering failure with a stable code so callers can
// tell timeouts apart from broken input without string matching.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }
