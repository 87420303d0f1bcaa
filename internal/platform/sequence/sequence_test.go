package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpenseNumber(t *testing.T) {
	assert.Equal(t, "GTO-00001", ExpenseNumber(1))
	assert.Equal(t, "GTO-00042", ExpenseNumber(42))
	assert.Equal(t, "GTO-123456", ExpenseNumber(123456))
}

func TestCertificateNumber(t *testing.T) {
	assert.Equal(t, "CRT-2025-00001", CertificateNumber(2025, 1))
	assert.Equal(t, "CRT-2025-00043", CertificateNumber(2025, 43))
}

func TestYearScope(t *testing.T) {
	assert.Equal(t, "2024", YearScope(2024))
}
