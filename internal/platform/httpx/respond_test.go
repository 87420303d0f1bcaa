package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"name": "caja principal"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"caja principal"}`, rec.Body.String())
}

func TestProblemShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusConflict, "conflict", "period range overlaps an existing period")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"title":"conflict","status":409,"detail":"period range overlaps an existing period"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"memo":"monthly rent"}`))
	var payload struct {
		Memo string `json:"memo"`
	}
	require.NoError(t, DecodeJSON(req, &payload))
	assert.Equal(t, "monthly rent", payload.Memo)
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"memo":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var payload struct {
		Memo string `json:"memo"`
	}
	assert.Error(t, DecodeJSON(req, &payload))
}
