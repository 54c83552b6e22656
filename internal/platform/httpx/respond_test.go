package httpx_test

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hessekhub/hessekhub-finance/internal/platform/httpx"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

type samplePayload struct {
	Name string `json:"name" validate:"required"`
}

func TestDecodeJSONMarksMalformedBodyAsValidation(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))

	var payload samplePayload
	err := httpx.DecodeJSON(req, &payload)
	require.ErrorIs(t, err, shared.ErrValidation)

	rec := httptest.NewRecorder()
	httpx.RespondError(rec, err)
	require.Equal(t, 400, rec.Code)
}

func TestDecodeJSONRunsStructValidation(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":""}`))

	var payload samplePayload
	err := httpx.DecodeJSON(req, &payload)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	httpx.RespondError(rec, err)
	require.Equal(t, 400, rec.Code)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("bad input: %w", shared.ErrValidation), 400},
		{"not found", fmt.Errorf("missing: %w", shared.ErrNotFound), 404},
		{"invalid state", fmt.Errorf("already approved: %w", shared.ErrInvalidState), 422},
		{"conflict", fmt.Errorf("duplicate: %w", shared.ErrConflict), 409},
		{"configuration", fmt.Errorf("missing account: %w", shared.ErrConfiguration), 500},
		{"unknown", fmt.Errorf("boom"), 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpx.RespondError(rec, tc.err)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
