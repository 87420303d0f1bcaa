// Package sequence allocates tenant-scoped document numbers. Counters live in
// the document_sequences table and advance through a single atomic upsert, so
// two concurrent allocations can never observe the same value. Callers pass
// their open transaction to keep the allocation inside the same atomic unit
// as the row that consumes it.
package sequence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caudal-erp/caudal-erp/internal/platform/db"
)

// Document types with tenant-scoped counters.
const (
	DocTypeExpense     = "GTO"
	DocTypeCertificate = "CRT"
)

// Next advances and returns the counter for (tenant, docType, scope).
// Scope partitions the counter further, e.g. the fiscal year for
// certificates; pass "" for counters that only scope by tenant.
func Next(ctx context.Context, q db.Querier, tenantID uuid.UUID, docType, scope string) (int64, error) {
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (tenant_id, doc_type, scope, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, doc_type, scope)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, tenantID, docType, scope).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sequence: next %s/%s: %w", docType, scope, err)
	}
	return seq, nil
}

// ExpenseNumber formats an expense sequence value, e.g. GTO-00001.
func ExpenseNumber(seq int64) string {
	return fmt.Sprintf("GTO-%05d", seq)
}

// CertificateNumber formats a certificate sequence value, e.g. CRT-2025-00001.
func CertificateNumber(year int, seq int64) string {
	return fmt.Sprintf("CRT-%d-%05d", year, seq)
}

// YearScope renders a fiscal year as a counter scope.
func YearScope(year int) string {
	return fmt.Sprintf("%d", year)
}
