/**
 * 探测 HTTP 客户端
 * @description: 单次探测请求 (方法/地址/请求体/请求头/代理/超时), 返回状态码、响应头、响应体与可选的 JSON 结构
 */
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"neorecon/internal/core/model"
)

// maxBodySize 单个响应体读取上限
const maxBodySize = 10 << 20

// Request 探测请求
type Request struct {
	Method    string
	URL       string
	Body      string
	Headers   map[string]string
	UserAgent string
}

// Doer 执行单次探测请求
// 返回 error 表示传输失败 (超时、拒绝连接、DNS 失败等), 调用方将其记为 ERROR
type Doer interface {
	Do(ctx context.Context, req *Request) (*model.Response, error)
}

// Options 客户端参数
type Options struct {
	Timeout time.Duration
	Proxy   string
}

// HTTPClient 基于 net/http 的 Doer 实现
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPClient 创建HTTP客户端实例
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.Timeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	if err := configureProxy(transport, opts.Proxy, dialer); err != nil {
		return nil, err
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		timeout: opts.Timeout,
	}, nil
}

// Do 执行探测请求
func (c *HTTPClient) Do(ctx context.Context, r *Request) (*model.Response, error) {
	resp, err := c.doRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &model.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(body),
		URL:        resp.Request.URL.String(),
	}
	out.JSON = ParseJSON(resp.Header.Get("Content-Type"), body)
	return out, nil
}

// Download 下载资源并写入 w
func (c *HTTPClient) Download(ctx context.Context, url, userAgent string, w io.Writer) error {
	resp, err := c.doRequest(ctx, &Request{Method: http.MethodGet, URL: url, UserAgent: userAgent})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

// doRequest 执行HTTP请求
func (c *HTTPClient) doRequest(ctx context.Context, r *Request) (*http.Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	if r.Body != "" && looksLikeJSON([]byte(r.Body)) {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	return c.client.Do(req)
}

// ParseJSON 响应体为 JSON 时返回解析结果, 否则返回 nil
// 数字保留为 json.Number
func ParseJSON(contentType string, body []byte) interface{} {
	if !strings.Contains(strings.ToLower(contentType), "json") && !looksLikeJSON(body) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
