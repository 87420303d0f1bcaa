package withholding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caudal-erp/caudal-erp/internal/platform/cache"
	"github.com/caudal-erp/caudal-erp/internal/platform/sequence"
	"github.com/caudal-erp/caudal-erp/internal/purchasing"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

var (
	// ErrSupplierNotFound indicates the supplier is unknown to the tenant.
	ErrSupplierNotFound = fmt.Errorf("withholding: supplier %w", shared.ErrNotFound)
	// ErrNoReceivedOrders indicates an empty aggregation window.
	ErrNoReceivedOrders = fmt.Errorf("withholding: %w: no received purchase orders for the period", shared.ErrValidation)
	// ErrInvalidYear rejects nonsensical fiscal years.
	ErrInvalidYear = fmt.Errorf("withholding: %w: fiscal year out of range", shared.ErrValidation)
)

// Service generates withholding certificates from received purchase orders.
type Service struct {
	repo   Repository
	orders purchasing.ReadModel
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, orders purchasing.ReadModel, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, orders: orders, logger: logger, now: time.Now}
}

// WithCache enables caching of stats reads. A nil cache is a no-op.
func (s *Service) WithCache(c *cache.Cache) {
	s.cache = c
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// Generate aggregates the supplier's RECEIVED purchase orders for the year
// and upserts the certificate. The insert and its number allocation share
// one transaction; regeneration updates totals and generatedAt while the
// certificate number is preserved.
func (s *Service) Generate(ctx context.Context, supplierID int64, year int, wtype Type) (Certificate, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Certificate{}, err
	}
	if year < 1900 || year > 9999 {
		return Certificate{}, ErrInvalidYear
	}
	exists, err := s.orders.SupplierExists(ctx, tenantID, supplierID)
	if err != nil {
		return Certificate{}, err
	}
	if !exists {
		return Certificate{}, ErrSupplierNotFound
	}
	from, to := yearRange(year)
	orders, err := s.orders.FindReceived(ctx, tenantID, &supplierID, from, to)
	if err != nil {
		return Certificate{}, err
	}
	if len(orders) == 0 {
		return Certificate{}, ErrNoReceivedOrders
	}

	totalBase := decimal.Zero
	totalTax := decimal.Zero
	for _, order := range orders {
		totalBase = totalBase.Add(order.Subtotal)
		totalTax = totalTax.Add(order.Tax)
	}
	totalWithheld := Calculate(totalBase, wtype, totalTax)
	generatedAt := s.now()

	var cert Certificate
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdateByKey(ctx, tenantID, supplierID, year, wtype)
		switch {
		case err == nil:
			cert, err = tx.UpdateTotals(ctx, existing.ID, totalBase, totalWithheld, generatedAt)
			return err
		case errorsIsNotFound(err):
			seq, err := tx.NextSequence(ctx, tenantID, year)
			if err != nil {
				return err
			}
			cert, err = tx.Insert(ctx, Certificate{
				TenantID:          tenantID,
				SupplierID:        supplierID,
				FiscalYear:        year,
				Type:              wtype,
				TotalBase:         totalBase,
				TotalWithheld:     totalWithheld,
				CertificateNumber: sequence.CertificateNumber(year, seq),
				GeneratedAt:       generatedAt,
			})
			return err
		default:
			return err
		}
	})
	if err != nil {
		return Certificate{}, err
	}
	s.invalidateStats(ctx, tenantID)
	return cert, nil
}

// GenerateAll produces certificates for every supplier with RECEIVED orders
// in the year. One supplier's failure is logged and skipped; the batch
// reports what it did produce.
func (s *Service) GenerateAll(ctx context.Context, year int, wtype Type) (BatchResult, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	if wtype == "" {
		wtype = TypeRenta
	}
	from, to := yearRange(year)
	suppliers, err := s.orders.DistinctSuppliers(ctx, tenantID, from, to)
	if err != nil {
		return BatchResult{}, err
	}
	result := BatchResult{Certificates: []Certificate{}}
	for _, supplierID := range suppliers {
		cert, err := s.Generate(ctx, supplierID, year, wtype)
		if err != nil {
			s.logger.Warn("certificate generation skipped",
				slog.Int64("supplier_id", supplierID),
				slog.Int("year", year),
				slog.String("type", string(wtype)),
				slog.Any("error", err))
			continue
		}
		result.Generated++
		result.Certificates = append(result.Certificates, cert)
	}
	return result, nil
}

// Get returns one certificate.
func (s *Service) Get(ctx context.Context, id int64) (Certificate, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Certificate{}, err
	}
	return s.repo.Get(ctx, tenantID, id)
}

// ListByYear returns the tenant's certificates for a fiscal year.
func (s *Service) ListByYear(ctx context.Context, year int) ([]Certificate, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByYear(ctx, tenantID, year)
}

// Remove hard-deletes a certificate after an existence check.
func (s *Service) Remove(ctx context.Context, id int64) error {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.invalidateStats(ctx, tenantID)
	return nil
}

// Stats aggregates existing certificates for the year; no side effects.
// Results are cached per tenant until the next generation or removal.
func (s *Service) Stats(ctx context.Context, year int) (Stats, error) {
	tenantID, err := shared.TenantFromContext(ctx)
	if err != nil {
		return Stats{}, err
	}
	key, err := s.cache.BuildKey(ctx, s.cacheScope(tenantID), "withholding", "stats", tenantID.String(), fmt.Sprintf("%d", year))
	if err != nil {
		s.logger.Warn("stats cache unavailable", slog.Any("error", err))
		return s.repo.Stats(ctx, tenantID, year)
	}
	var stats Stats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
		return s.repo.Stats(ctx, tenantID, year)
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Service) cacheScope(tenantID uuid.UUID) string {
	return "withholding:" + tenantID.String()
}

func (s *Service) invalidateStats(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, s.cacheScope(tenantID)); err != nil {
		s.logger.Warn("stats cache invalidation failed", slog.Any("error", err))
	}
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
