package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// abortWithServiceError завершает запрос с ошибкой сервисного слоя. Статус и текст ответа выбирает
// middlewares.Errors.
func abortWithServiceError(c *gin.Context, err error) {
	c.Abort()
	_ = c.Error(err)
}

// abortWithBindError ошибки валидации параметров возвращаются со статусом 422, ошибки разбора тела с 400.
func abortWithBindError(c *gin.Context, bindErr error) {
	var valErrs validator.ValidationErrors
	if errors.As(bindErr, &valErrs) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
		return
	}
	_ = c.AbortWithError(http.StatusBadRequest, bindErr).
		SetType(gin.ErrorTypeBind)
}
