package client

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goliatone/go-knackobject/pkg/knack"
)

type response struct {
	request *http.Request
	status  int
	header  http.Header
	body    []byte
}

func (c *Client) do(ctx context.Context, endpoint string) (*response, error) {
	if c.http == nil {
		return nil, errors.New("knack client: http client is not configured")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(knack.HeaderApplicationID, c.appID)
	req.Header.Set(knack.HeaderAPIKey, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &response{
		request: req,
		status:  resp.StatusCode,
		header:  resp.Header,
		body:    data,
	}, nil
}
