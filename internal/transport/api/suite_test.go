package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/logger"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service/tokens"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/mocks"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/testutils"
)

var (
	customer = domain.Actor{UserID: 10, Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

// handlerSuite общая подготовка роутера с моками сервисов.
type handlerSuite struct {
	suite.Suite
	router             *gin.Engine
	mockOrderService   *mocks.MockOrderServicer
	mockPaymentService *mocks.MockPaymentServicer
	mockHealth         *mocks.MockHealthChecker
	jwtSecret          []byte
	customerToken      string
	adminToken         string
}

func (s *handlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	mockCtrl := gomock.NewController(s.T())

	s.mockOrderService = mocks.NewMockOrderServicer(mockCtrl)
	s.mockPaymentService = mocks.NewMockPaymentServicer(mockCtrl)
	s.mockHealth = mocks.NewMockHealthChecker(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	var err error
	s.customerToken, err = tokens.GenerateUserJWT(customer.UserID, customer.Role, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	s.adminToken, err = tokens.GenerateUserJWT(admin.UserID, admin.Role, time.Hour, s.jwtSecret)
	s.Require().NoError(err)

	s.router, err = New(RouterArgs{
		Logger:         logger.New(io.Discard),
		OrderService:   s.mockOrderService,
		PaymentService: s.mockPaymentService,
		Health:         s.mockHealth,
		JWTSecretKey:   s.jwtSecret,
	})
	s.Require().NoError(err)
}

// request выполняет запрос с json телом и токеном, если они заданы. Возвращает статус и тело ответа.
func (s *handlerSuite) request(method, url, token string, payload any) (int, []byte) {
	args := testutils.RequestArgs{
		Router: s.router,
		Method: method,
		URL:    url,
	}
	reqOpts := []func(*testutils.RequestOptions){testutils.WithHeader("Accept", "application/json")}
	switch body := payload.(type) {
	case nil:
	case []byte:
		args.Body = bytes.NewReader(body)
	default:
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		args.Body = bytes.NewReader(raw)
	}
	if payload != nil {
		reqOpts = append(reqOpts, testutils.WithHeader("Content-Type", "application/json"))
	}
	if token != "" {
		reqOpts = append(reqOpts, testutils.WithHeader("Authorization", fmt.Sprintf("Bearer %s", token)))
	}

	res, err := testutils.MakeRequest(args, reqOpts...)
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()
	body, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	return res.StatusCode, body
}

func (s *handlerSuite) decodeError(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(body, &resp))
	return resp.Error
}

func routeURL(route string, id int64) string {
	return RouteGroup + strings.Replace(route, ":id", strconv.FormatInt(id, 10), 1)
}

func (s *handlerSuite) tokenFor(actor domain.Actor) string {
	token, err := tokens.GenerateUserJWT(actor.UserID, actor.Role, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	return token
}
