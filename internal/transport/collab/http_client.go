// Package collab HTTP клиенты внешних сервисов: каталога товаров, пользователей и уведомлений.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultTimeout = 5 * time.Second

// httpClient общий JSON клиент. Каждый запрос ограничен timeout, если у ctx нет более раннего дедлайна.
type httpClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) httpClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return httpClient{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: http.DefaultClient,
	}
}

// do выполняет запрос и декодирует ответ в out, если он не nil. Возвращает код ответа. Ответ со статусом
// не из 2xx возвращается как *StatusCodeError.
//
//nolint:nonamedreturns
func (c httpClient) do(ctx context.Context, method, route string, body, out any) (status int, err error) {
	var reqBody io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return 0, fmt.Errorf("marshal request: %s", marshalErr.Error())
		}
		reqBody = bytes.NewReader(payload)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(reqCtx, method, c.baseURL+route, reqBody)
	if reqErr != nil {
		return 0, fmt.Errorf("create request: %s", reqErr.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return 0, fmt.Errorf("do request: %w", doErr)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, NewStatusCodeError(resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	if jsonErr := json.NewDecoder(resp.Body).Decode(out); jsonErr != nil {
		return resp.StatusCode, fmt.Errorf("parse response: %s", jsonErr.Error())
	}
	return resp.StatusCode, nil
}
