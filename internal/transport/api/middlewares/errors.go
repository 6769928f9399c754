package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusUnprocessableEntity:
		return "unprocessable entity"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "bad gateway"
	default:
		return "internal server error"
	}
}

// DomainErrorStatus http статус для ошибки сервисного слоя. public - текст ошибки можно показать клиенту.
func DomainErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden, true
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, domain.ErrAmountMismatch):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrCancellationInProgress),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrPaymentNotRefundable),
		errors.Is(err, domain.ErrPaymentAlreadyApproved),
		errors.Is(err, domain.ErrPaymentAlreadyFailed),
		errors.Is(err, domain.ErrPaymentNotApprovable),
		errors.Is(err, domain.ErrDuplicateKey),
		errors.Is(err, domain.ErrStaleState):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway, true
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway, false
	default:
		return http.StatusInternalServerError, false
	}
}

// Errors формирует ответ по первой ошибке запроса. Если обработчик не выставил статус, он выбирается по
// ошибке сервисного слоя. Текст приватной ошибки заменяется описанием статуса.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// тело ответа уже записано обработчиком, ошибки нужны только для лога.
		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		// обрабатываем только первую ошибку
		firstErr := c.Errors[0]
		status := c.Writer.Status()
		public := firstErr.IsType(gin.ErrorTypePublic)
		if !c.Writer.Written() {
			status, public = DomainErrorStatus(firstErr.Err)
		}
		msg := statusErrorText(status)
		if public {
			msg = firstErr.Error()
		}

		accept := c.GetHeader("Accept")
		contentType := c.GetHeader("Content-Type")
		switch {
		case strings.Contains(accept, "application/json"),
			strings.Contains(contentType, "application/json"):
			c.JSON(status, gin.H{"error": msg})
		default:
			c.String(status, msg)
		}
		c.Abort()
	}
}
