package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

type CollabTestSuite struct {
	suite.Suite
	server *httptest.Server
}

func TestCollabSuite(t *testing.T) {
	suite.Run(t, new(CollabTestSuite))
}

func (s *CollabTestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *CollabTestSuite) serve(h http.HandlerFunc) string {
	s.server = httptest.NewServer(h)
	return s.server.URL
}

// TestGetProduct Тест на получение товара и отсутствующий товар.
func (s *CollabTestSuite) TestGetProduct() {
	name := gofakeit.ProductName()
	c := NewCatalogClient(s.serve(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/products/404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.Equal("/api/v1/products/1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(productResponse{
			ID:       1,
			Name:     name,
			Price:    decimal.NewFromInt(10000),
			Stock:    3,
			IsActive: true,
		})
	}), time.Second)

	p, err := c.GetProduct(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal(name, p.Name)
	s.True(p.Price.Equal(decimal.NewFromInt(10000)))
	s.True(p.IsActive)

	_, err = c.GetProduct(context.Background(), 404)
	s.Require().ErrorIs(err, domain.ErrRecordNotFound)
}

// TestStockOperations Тест на операции с остатками: успех, отказ и ошибка сервиса.
func (s *CollabTestSuite) TestStockOperations() {
	c := NewCatalogClient(s.serve(func(w http.ResponseWriter, r *http.Request) {
		var req stockRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		switch r.URL.Path {
		case "/api/v1/products/1/stock/reserve":
			_ = json.NewEncoder(w).Encode(stockResponse{Success: true})
		case "/api/v1/products/2/stock/reserve":
			w.WriteHeader(http.StatusConflict)
		case "/api/v1/products/3/stock/release":
			_ = json.NewEncoder(w).Encode(stockResponse{Success: false})
		case "/api/v1/products/1/inventory/decrease":
			s.Equal("ORD-1", req.Reference)
			_ = json.NewEncoder(w).Encode(stockResponse{Success: true})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}), time.Second)
	ctx := context.Background()

	ok, err := c.ReserveStock(ctx, 1, 2)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = c.ReserveStock(ctx, 2, 2)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = c.ReleaseStock(ctx, 3, 1)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = c.DecreaseInventory(ctx, 1, 1, "ORD-1")
	s.Require().NoError(err)
	s.True(ok)

	_, err = c.CheckStock(ctx, 9, 1)
	s.Require().ErrorIs(err, domain.ErrCollaborator)
}

// TestGetUser Тест на получение пользователя, неизвестного пользователя и таймаут.
func (s *CollabTestSuite) TestGetUser() {
	email := gofakeit.Email()
	c := NewAccountClient(s.serve(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/10":
			_ = json.NewEncoder(w).Encode(userResponse{ID: 10, Email: email, IsActive: true})
		case "/api/v1/users/11":
			w.WriteHeader(http.StatusNotFound)
		default:
			<-r.Context().Done()
		}
	}), 50*time.Millisecond)
	ctx := context.Background()

	u, err := c.GetUser(ctx, 10)
	s.Require().NoError(err)
	s.Equal(email, u.Email)
	s.True(u.IsActive)

	u, err = c.GetUser(ctx, 11)
	s.Require().NoError(err)
	s.False(u.IsActive)

	_, err = c.GetUser(ctx, 12)
	s.Require().ErrorIs(err, domain.ErrCollaborator)
}

// TestNotifications Тест на отправку уведомлений.
func (s *CollabTestSuite) TestNotifications() {
	var got []string
	c := NewNotificationClient(s.serve(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path)
		if r.URL.Path == RouteCancelNotification {
			var req cancelNotificationRequest
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
			s.True(req.Refunded)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}), time.Second)
	ctx := context.Background()

	s.Require().NoError(c.SendOrderStatusNotification(ctx, domain.StatusNotification{
		UserID: 10, OrderID: 1, OrderNumber: "ORD-1", Status: domain.OrderStatusShipping,
	}))
	err := c.SendOrderCancelNotification(ctx, domain.CancelNotification{
		UserID: 10, OrderID: 1, OrderNumber: "ORD-1", Reason: "changed mind", Refunded: true,
	})
	s.Require().ErrorIs(err, domain.ErrCollaborator)
	s.Equal([]string{RouteStatusNotification, RouteCancelNotification}, got)
}
