package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/beneficios/backend/internal/domain/shared"
	"github.com/beneficios/backend/internal/infrastructure/logger"
	"github.com/beneficios/backend/internal/infrastructure/partner"
	"github.com/beneficios/backend/internal/interfaces/http/dto"
	"github.com/beneficios/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a success response with the item count in meta
func (h *BaseHandler) SuccessList(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError sends a 400 validation response for a failed ShouldBind call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	c.Set(middleware.ErrorCodeKey, dto.ErrCodeValidation)
	middleware.HandleValidationError(c, err)
}

// HandleError converts domain and partner errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		if domainErr.Field == "" {
			h.ErrorWithCode(c, code, domainErr.Message)
			return
		}
		resp := dto.NewErrorResponseWithRequestID(code, domainErr.Message, middleware.GetRequestID(c))
		resp.Error.Details = []dto.ValidationDetail{{Field: domainErr.Field, Message: domainErr.Message}}
		c.Set(middleware.ErrorCodeKey, code)
		c.JSON(dto.GetHTTPStatus(code), resp)
		return
	}

	if pe, ok := partner.AsError(err); ok {
		code, message := partnerErrorCode(pe)
		logger.GetGinLogger(c).Warn("Partner request failed",
			zap.String("kind", pe.Kind.String()),
			zap.Int("partner_status", pe.StatusCode),
			zap.String("code", code),
			zap.String("raw_body", truncate(pe.RawBody, 512)),
			zap.Error(err),
		)
		h.ErrorWithCode(c, code, message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// partnerErrorCode maps a partner failure to an API error code and message.
// The partner's own message is kept so clients can still tell kinds apart,
// except for transport failures whose cause may expose internal addresses.
func partnerErrorCode(pe *partner.Error) (string, string) {
	switch pe.Kind {
	case partner.KindTransportFailure:
		return dto.ErrCodePartnerUnavailable, partner.MsgConnectionProblem
	case partner.KindMalformedResponse:
		return dto.ErrCodePartnerError, pe.Message
	}

	switch pe.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return dto.ErrCodePartnerRejected, pe.Message
	case http.StatusUnauthorized, http.StatusForbidden:
		return dto.ErrCodePartnerAuthFailed, pe.Message
	default:
		return dto.ErrCodePartnerError, pe.Message
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
