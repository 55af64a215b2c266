package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

type HTTPClient struct {
	client *resty.Client
}

func NewHTTPClient() IClient {
	return &HTTPClient{
		client: resty.New().SetTimeout(defaultTimeout),
	}
}

func (c *HTTPClient) DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error {
	if requestParam == nil {
		return errors.New("request param is nil")
	}

	if requestParam.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestParam.Timeout)
		defer cancel()
	}

	req := c.client.R().SetContext(ctx).SetHeaders(requestParam.Header)
	if requestParam.Body != nil {
		// struct / map 由 resty 序列化为 JSON 并补上 Content-Type
		req.SetBody(requestParam.Body)
	}
	if requestParam.Response != nil {
		// sidecar 不一定带 Content-Type，强制按 JSON 解析
		req.SetResult(requestParam.Response).ForceContentType("application/json")
	}

	resp, err := req.Execute(requestParam.Method, requestParam.RequestURI)
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("HTTP request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
