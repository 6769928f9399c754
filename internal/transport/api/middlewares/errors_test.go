package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

type ErrorsTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(Errors())

	serviceErr := func(err error) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Abort()
			_ = c.Error(err)
		}
	}
	s.router.GET("/stale", serviceErr(fmt.Errorf("updating order 1: %w", domain.ErrStaleState)))
	s.router.GET("/missing", serviceErr(fmt.Errorf("order 7: %w", domain.ErrRecordNotFound)))
	s.router.GET("/transition", serviceErr(domain.NewInvalidTransitionError(
		domain.OrderStatusShipping, domain.OrderStatusCancelled)))
	s.router.GET("/provider", serviceErr(domain.NewProviderError(500, "PROVIDER_ERROR", "refund unavailable")))
	s.router.GET("/unknown", serviceErr(errors.New("connection reset by peer")))
	s.router.GET("/explicit", func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusBadRequest, errors.New("invalid order id")).SetType(gin.ErrorTypePublic)
	})
	s.router.GET("/written", func(c *gin.Context) {
		_ = c.Error(errors.New("logged only"))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *ErrorsTestSuite) do(path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// TestErrors_DomainTaxonomy Тест на выбор статуса по ошибке сервисного слоя.
func (s *ErrorsTestSuite) TestErrors_DomainTaxonomy() {
	tests := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/stale", status: http.StatusConflict, body: `{"error":"updating order 1: stale state"}`},
		{path: "/missing", status: http.StatusNotFound, body: `{"error":"not found"}`},
		{
			path:   "/transition",
			status: http.StatusConflict,
			body:   `{"error":"invalid status transition from SHIPPING to CANCELLED"}`,
		},
		{path: "/unknown", status: http.StatusInternalServerError, body: `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		w := s.do(tt.path, "application/json")
		s.Equal(tt.status, w.Code, tt.path)
		s.JSONEq(tt.body, w.Body.String(), tt.path)
	}

	w := s.do("/provider", "application/json")
	s.Equal(http.StatusBadGateway, w.Code)
}

// TestErrors_ExplicitStatus Тест на сохранение статуса, выставленного обработчиком.
func (s *ErrorsTestSuite) TestErrors_ExplicitStatus() {
	w := s.do("/explicit", "text/plain")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid order id", w.Body.String())
}

// TestErrors_BodyAlreadyWritten Тест на то, что записанный обработчиком ответ не меняется.
func (s *ErrorsTestSuite) TestErrors_BodyAlreadyWritten() {
	w := s.do("/written", "application/json")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

// TestDomainErrorStatus Тест на публичность текста ошибок.
func (s *ErrorsTestSuite) TestDomainErrorStatus() {
	status, public := DomainErrorStatus(domain.NewValidationError("amount", "must be positive"))
	s.Equal(http.StatusUnprocessableEntity, status)
	s.True(public)

	status, public = DomainErrorStatus(fmt.Errorf("catalog: %w", domain.ErrCollaborator))
	s.Equal(http.StatusBadGateway, status)
	s.False(public)
}
