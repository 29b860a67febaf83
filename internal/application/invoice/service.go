// Package invoice generates, stores and serves PDF invoices for orders.
package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/storage"
)

const pdfContentType = "application/pdf"

// Service handles invoice generation and delivery
type Service struct {
	orders   order.Repository
	renderer printing.PDFRenderer
	blobs    storage.BlobStore
	company  printing.CompanyInfo
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService creates a new invoice Service
func NewService(
	orders order.Repository,
	renderer printing.PDFRenderer,
	blobs storage.BlobStore,
	company printing.CompanyInfo,
	timeout time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:   orders,
		renderer: renderer,
		blobs:    blobs,
		company:  company,
		timeout:  timeout,
		logger:   logger,
	}
}

// PathFor returns the storage key for an order's invoice, dated with the
// generation day.
func (s *Service) PathFor(o *order.Order) string {
	return fmt.Sprintf("invoices/invoice-%s-%s.pdf", o.ID, time.Now().Format("2006-01-02"))
}

// DownloadFilename returns the file name presented to the downloading client
func DownloadFilename(o *order.Order) string {
	return fmt.Sprintf("Invoice-%s.pdf", o.ID)
}

// Generate renders the order's invoice to PDF and stores it, returning the
// storage path. It does not touch the order record; callers decide how the
// path is persisted.
func (s *Service) Generate(ctx context.Context, o *order.Order) (string, error) {
	data := s.buildInvoiceData(o)

	html, err := printing.RenderInvoiceHTML(data)
	if err != nil {
		return "", err
	}

	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:    html,
		Title:   "Invoice #" + o.InvoiceNumber(),
		Margins: printing.DefaultMargins(),
		Timeout: s.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render invoice for order %s: %w", o.ID, err)
	}

	path := s.PathFor(o)
	if err := s.blobs.Put(ctx, path, result.PDFData, pdfContentType); err != nil {
		return "", fmt.Errorf("failed to store invoice for order %s: %w", o.ID, err)
	}

	s.logger.Info("invoice generated",
		zap.String("order_id", o.ID.String()),
		zap.String("path", path),
		zap.Int("bytes", len(result.PDFData)))

	return path, nil
}

// GenerateAndAttach generates the invoice and records its path on the order
// via a silent column update, so the write can never trigger another
// generation. A superseded artifact under a different path is removed.
func (s *Service) GenerateAndAttach(ctx context.Context, o *order.Order) error {
	previous := ""
	if o.InvoicePath != nil {
		previous = *o.InvoicePath
	}

	path, err := s.Generate(ctx, o)
	if err != nil {
		return err
	}

	if err := s.orders.UpdateInvoicePath(ctx, o.ID, &path); err != nil {
		return fmt.Errorf("failed to record invoice path for order %s: %w", o.ID, err)
	}
	o.SetInvoicePath(path)

	if previous != "" && previous != path {
		if err := s.blobs.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to remove superseded invoice",
				zap.String("order_id", o.ID.String()),
				zap.String("path", previous),
				zap.Error(err))
		}
	}

	return nil
}

// HasLiveInvoice reports whether the order references an invoice whose
// artifact actually exists in storage.
func (s *Service) HasLiveInvoice(ctx context.Context, o *order.Order) (bool, error) {
	if !o.HasInvoiceRef() {
		return false, nil
	}
	return s.blobs.Exists(ctx, *o.InvoicePath)
}

// Download returns the invoice file for an order, generating it first if the
// order has no live invoice. Generation failures propagate to the caller.
func (s *Service) Download(ctx context.Context, orderID uuid.UUID) (string, []byte, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return "", nil, err
	}

	live, err := s.HasLiveInvoice(ctx, o)
	if err != nil {
		return "", nil, err
	}
	if !live {
		if err := s.GenerateAndAttach(ctx, o); err != nil {
			return "", nil, err
		}
	}

	data, err := s.blobs.Get(ctx, *o.InvoicePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read invoice for order %s: %w", o.ID, err)
	}

	return DownloadFilename(o), data, nil
}

// Delete removes the order's stored invoice artifact, if any
func (s *Service) Delete(ctx context.Context, o *order.Order) error {
	if !o.HasInvoiceRef() {
		return nil
	}

	if err := s.blobs.Delete(ctx, *o.InvoicePath); err != nil {
		return fmt.Errorf("failed to delete invoice for order %s: %w", o.ID, err)
	}

	return nil
}

// BulkGenerate generates invoices for the given orders, skipping any that
// already have a live invoice. Per-order failures are logged and do not stop
// the run. It returns the number of invoices generated.
func (s *Service) BulkGenerate(ctx context.Context, orderIDs []uuid.UUID) (int, error) {
	orders, err := s.orders.FindByIDs(ctx, orderIDs)
	if err != nil {
		return 0, err
	}

	generated := 0
	for idx := range orders {
		o := &orders[idx]

		live, err := s.HasLiveInvoice(ctx, o)
		if err != nil {
			s.logger.Warn("failed to check invoice for order",
				zap.String("order_id", o.ID.String()), zap.Error(err))
			continue
		}
		if live {
			continue
		}

		if err := s.GenerateAndAttach(ctx, o); err != nil {
			s.logger.Warn("failed to generate invoice for order",
				zap.String("order_id", o.ID.String()), zap.Error(err))
			continue
		}
		generated++
	}

	return generated, nil
}

// buildInvoiceData maps an order to the document model, sanitizing every
// user-entered field. Lines that don't carry a product are left out.
func (s *Service) buildInvoiceData(o *order.Order) printing.InvoiceData {
	lines := make([]printing.InvoiceLine, 0, len(o.Items))
	for _, item := range o.Items {
		if !item.HasProduct() || item.Quantity <= 0 {
			continue
		}
		lines = append(lines, printing.InvoiceLine{
			Name:      sanitizeText(item.ProductName),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.TotalPrice,
		})
	}

	return printing.InvoiceData{
		Number:        o.InvoiceNumber(),
		Date:          o.CreatedAt.Format("2 January 2006"),
		Company:       s.company,
		CustomerName:  sanitizeText(o.Name),
		CustomerEmail: sanitizeText(o.Email),
		CustomerPhone: sanitizeText(o.Phone),
		Notes:         sanitizeText(o.Notes),
		PaymentMethod: o.PaymentMethod.String(),
		Paid:          o.IsPaidInFull(),
		Lines:         lines,
		Total:         o.TotalPrice,
		PaymentAmount: o.PaymentAmount,
		ChangeAmount:  o.ChangeAmount,
	}
}
