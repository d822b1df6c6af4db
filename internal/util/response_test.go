package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ve := &ValidationError{}
	ve.Add("progress", "must be between 0 and 100")

	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantRetryable bool
	}{
		{"validation", ve, http.StatusBadRequest, false},
		{"wrapped not found", fmt.Errorf("quiz 9: %w", ErrQuizNotFound), http.StatusNotFound, false},
		{"unknown section", ErrUnknownSection, http.StatusNotFound, false},
		{"conflict", ErrProgressConflict, http.StatusConflict, true},
		{"rolled back transaction", fmt.Errorf("%w: %w", ErrTransactionFailed, errors.New("database is locked")), http.StatusServiceUnavailable, true},
		{"other", errors.New("disk full"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleServiceError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantRetryable, resp.Retryable)
		})
	}
}

func TestValidationErrorErr(t *testing.T) {
	ve := &ValidationError{}
	assert.NoError(t, ve.Err())

	ve.Add("limit", "too large")
	err := ve.Err()
	require.Error(t, err)
	got, ok := IsValidationError(fmt.Errorf("list: %w", err))
	require.True(t, ok)
	assert.Equal(t, "limit", got.Fields[0].Field)
}

func TestIsClientError(t *testing.T) {
	ve := &ValidationError{}
	ve.Add("answers.3", "unknown question")

	assert.True(t, IsClientError(ve))
	assert.True(t, IsClientError(fmt.Errorf("art/x: %w", ErrUnknownSection)))
	assert.False(t, IsClientError(ErrProgressConflict))
	assert.False(t, IsClientError(errors.New("database is locked")))
}
