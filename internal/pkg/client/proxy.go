package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/proxy"
)

// configureProxy 根据代理地址配置传输层
// http/https 代理走 net/http 的 CONNECT, socks5 代理替换拨号器
func configureProxy(transport *http.Transport, proxyAddr string, base *net.Dialer) error {
	if proxyAddr == "" {
		transport.Proxy = nil
		return nil
	}
	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("invalid proxy address: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
		return nil
	case "socks5", "socks5h":
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	var auth *proxy.Auth
	if u.User != nil {
		auth = &proxy.Auth{User: u.User.Username()}
		if p, ok := u.User.Password(); ok {
			auth.Password = p
		}
	}
	forward, err := proxy.SOCKS5("tcp", u.Host, auth, base)
	if err != nil {
		return fmt.Errorf("failed to create socks5 dialer: %w", err)
	}

	transport.Proxy = nil
	transport.DialContext = socksDialContext(forward)
	return nil
}

func socksDialContext(forward proxy.Dialer) func(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := forward.(proxy.ContextDialer); ok {
		return cd.DialContext
	}

	// 旧版 Dialer 只有 Dial, 用 goroutine 包一层以响应 ctx 取消
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := forward.Dial(network, address)
			ch <- dialResult{conn: conn, err: err}
		}()
		select {
		case <-ctx.Done():
			go func() {
				if res := <-ch; res.conn != nil {
					res.conn.Close()
				}
			}()
			return nil, ctx.Err()
		case res := <-ch:
			return res.conn, res.err
		}
	}
}
