package handler

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

	"github.com/beneficios/backend/internal/domain/document"
	"github.com/beneficios/backend/internal/domain/shared"
	"github.com/beneficios/backend/internal/infrastructure/partner"
	"github.com/beneficios/backend/internal/interfaces/http/dto"
	"github.com/beneficios/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, gin.H{"ok": true})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandlerSuccessList(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessList(c, gin.H{"items": []int{1, 2}}, 2)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
}

func TestBaseHandlerErrorWithRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	c.Set(middleware.RequestIDKey, "req-42")

	h.BadRequest(c, "nope")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	assert.Equal(t, dto.ErrCodeBadRequest, c.GetString(middleware.ErrorCodeKey))
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "invalid document",
			err:         document.ErrInvalidDocument,
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidDocument,
			wantMessage: "Invalid document number",
		},
		{
			name:        "wrapped domain error",
			err:         fmt.Errorf("simulate: %w", shared.NewDomainError("INVALID_INPUT", "Term must be greater than zero")),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidInput,
			wantMessage: "Term must be greater than zero",
		},
		{
			name:        "partner transport failure",
			err:         &partner.Error{Kind: partner.KindTransportFailure, StatusCode: 500, Message: "connection problem with partner: dial tcp 10.0.0.7:443: connection refused"},
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    dto.ErrCodePartnerUnavailable,
			wantMessage: partner.MsgConnectionProblem,
		},
		{
			name:        "partner malformed response",
			err:         &partner.Error{Kind: partner.KindMalformedResponse, StatusCode: 500, Message: partner.MsgMissingToken},
			wantStatus:  http.StatusBadGateway,
			wantCode:    dto.ErrCodePartnerError,
			wantMessage: partner.MsgMissingToken,
		},
		{
			name:        "partner 400",
			err:         &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 400, Message: partner.MsgInvalidSimulationInput},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    dto.ErrCodePartnerRejected,
			wantMessage: partner.MsgInvalidSimulationInput,
		},
		{
			name:        "partner 404",
			err:         &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 404, Message: partner.MsgContractNotFound},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    dto.ErrCodePartnerRejected,
			wantMessage: partner.MsgContractNotFound,
		},
		{
			name:        "partner 422",
			err:         &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 422, Message: partner.MsgNetValueBelowMinimum},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    dto.ErrCodePartnerRejected,
			wantMessage: partner.MsgNetValueBelowMinimum,
		},
		{
			name:        "partner 401",
			err:         &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 401, Message: partner.MsgUnauthorized},
			wantStatus:  http.StatusBadGateway,
			wantCode:    dto.ErrCodePartnerAuthFailed,
			wantMessage: partner.MsgUnauthorized,
		},
		{
			name:        "partner 500",
			err:         &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 500, Message: partner.MsgPartnerInternalError},
			wantStatus:  http.StatusBadGateway,
			wantCode:    dto.ErrCodePartnerError,
			wantMessage: partner.MsgPartnerInternalError,
		},
		{
			name:        "partner 418",
			err:         &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 418, Message: partner.MsgSimulationFailed},
			wantStatus:  http.StatusBadGateway,
			wantCode:    dto.ErrCodePartnerError,
			wantMessage: partner.MsgSimulationFailed,
		},
		{
			name:        "unknown error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
		})
	}
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.False(t, c.Writer.Written())
	assert.Equal(t, 0, w.Body.Len())
}
