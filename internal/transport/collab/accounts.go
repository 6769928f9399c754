package collab

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

const RouteUser = "/api/v1/users/%d"

const accountService = "accounts"

type userResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

type AccountClient struct {
	http httpClient
}

func NewAccountClient(baseURL string, timeout time.Duration) *AccountClient {
	return &AccountClient{http: newHTTPClient(baseURL, timeout)}
}

// GetUser пользователь по id. Неизвестный пользователь возвращается как неактивный.
func (c *AccountClient) GetUser(ctx context.Context, id int64) (*domain.UserInfo, error) {
	var resp userResponse
	status, err := c.http.do(ctx, http.MethodGet, fmt.Sprintf(RouteUser, id), nil, &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return &domain.UserInfo{ID: id}, nil
		}
		return nil, domain.NewCollaboratorError(accountService, "get user", err)
	}
	return &domain.UserInfo{
		ID:       resp.ID,
		Name:     resp.Name,
		Email:    resp.Email,
		IsActive: resp.IsActive,
	}, nil
}
