package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var errInvalidID = errors.New("invalid order id")

// pathID разбирает параметр :id. При ошибке запрос завершается со статусом 400 и возвращается false.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.AbortWithError(http.StatusBadRequest, errInvalidID).SetType(gin.ErrorTypePublic)
		return 0, false
	}
	return id, true
}

// bindOptionalJSON разбирает тело, если оно передано.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj) //nolint:wrapcheck
}
