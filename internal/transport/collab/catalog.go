package collab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

const (
	RouteProduct           = "/api/v1/products/%d"
	RouteStockCheck        = "/api/v1/products/%d/stock/check"
	RouteStockReserve      = "/api/v1/products/%d/stock/reserve"
	RouteStockRelease      = "/api/v1/products/%d/stock/release"
	RouteInventoryDecrease = "/api/v1/products/%d/inventory/decrease"
)

const catalogService = "catalog"

type productResponse struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"isActive"`
	ImageURL string          `json:"imageUrl"`
}

type stockRequest struct {
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference,omitempty"`
}

type stockResponse struct {
	Success bool `json:"success"`
}

// CatalogClient клиент сервиса товаров. Отказ в операции с остатками сервис возвращает статусом 409 или
// полем success=false, оба случая дают false без ошибки.
type CatalogClient struct {
	http httpClient
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{http: newHTTPClient(baseURL, timeout)}
}

// GetProduct товар по id. Если товара нет, возвращает domain.ErrRecordNotFound.
func (c *CatalogClient) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var resp productResponse
	status, err := c.http.do(ctx, http.MethodGet, fmt.Sprintf(RouteProduct, id), nil, &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrRecordNotFound)
		}
		return nil, domain.NewCollaboratorError(catalogService, "get product", err)
	}
	return &domain.Product{
		ID:       resp.ID,
		Name:     resp.Name,
		Price:    resp.Price,
		Stock:    resp.Stock,
		IsActive: resp.IsActive,
		ImageURL: resp.ImageURL,
	}, nil
}

func (c *CatalogClient) CheckStock(ctx context.Context, id int64, quantity int) (bool, error) {
	return c.stockOp(ctx, "check stock", fmt.Sprintf(RouteStockCheck, id), stockRequest{Quantity: quantity})
}

func (c *CatalogClient) ReserveStock(ctx context.Context, id int64, quantity int) (bool, error) {
	return c.stockOp(ctx, "reserve stock", fmt.Sprintf(RouteStockReserve, id), stockRequest{Quantity: quantity})
}

func (c *CatalogClient) ReleaseStock(ctx context.Context, id int64, quantity int) (bool, error) {
	return c.stockOp(ctx, "release stock", fmt.Sprintf(RouteStockRelease, id), stockRequest{Quantity: quantity})
}

func (c *CatalogClient) DecreaseInventory(ctx context.Context, id int64, quantity int, reference string) (bool, error) {
	return c.stockOp(ctx, "decrease inventory", fmt.Sprintf(RouteInventoryDecrease, id), stockRequest{
		Quantity:  quantity,
		Reference: reference,
	})
}

func (c *CatalogClient) stockOp(ctx context.Context, op, route string, req stockRequest) (bool, error) {
	var resp stockResponse
	_, err := c.http.do(ctx, http.MethodPost, route, req, &resp)
	if err != nil {
		var statusErr *StatusCodeError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict {
			return false, nil
		}
		return false, domain.NewCollaboratorError(catalogService, op, err)
	}
	return resp.Success, nil
}
