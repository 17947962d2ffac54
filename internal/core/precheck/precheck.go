/**
 * 预检认证
 * @description: 在主探测前按顺序执行辅助请求, 提取 token/cookie 并合并进主探测请求头
 */

package precheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/publicsuffix"

	"neorecon/internal/core/metadata"
	"neorecon/internal/core/model"
	"neorecon/internal/pkg/client"
)

// ErrPreCheckFailed 预检失败哨兵, 调用方将其记为 ERROR 并跳过主请求
var ErrPreCheckFailed = errors.New("pre-check failed")

// Authenticator 预检执行器
type Authenticator struct {
	doer      client.Doer
	userAgent string
	timeout   time.Duration // 每个步骤的请求超时, 0 表示沿用 ctx
}

// NewAuthenticator 创建预检执行器
func NewAuthenticator(doer client.Doer, userAgent string, timeout time.Duration) *Authenticator {
	return &Authenticator{doer: doer, userAgent: userAgent, timeout: timeout}
}

// Run 执行规则的全部预检步骤, 返回合并后的请求头
// account 为已变换的标识符, 用于填充步骤模板
// 任一步骤失败时返回包装了 ErrPreCheckFailed 的错误
func (a *Authenticator) Run(ctx context.Context, rule *model.SiteRule, account string) (map[string]string, error) {
	headers := make(map[string]string, len(rule.Headers))
	for k, v := range rule.Headers {
		headers[k] = v
	}
	if len(rule.PreCheck) == 0 {
		return headers, nil
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreCheckFailed, err)
	}

	// 预检派生的请求头, 后续步骤与主请求都会携带
	derived := make(map[string]string)
	for i, step := range rule.PreCheck {
		if err := a.runStep(ctx, jar, step, account, derived); err != nil {
			return nil, fmt.Errorf("%w: %s step %d: %v", ErrPreCheckFailed, rule.Name, i, err)
		}
	}

	for k, v := range derived {
		headers[k] = v
	}
	if cookie := cookieHeader(jar, rule.BuildURL(account)); cookie != "" {
		if _, ok := headers["Cookie"]; !ok {
			headers["Cookie"] = cookie
		}
	}
	return headers, nil
}

func (a *Authenticator) runStep(ctx context.Context, jar http.CookieJar, step model.PreCheckStep, account string, derived map[string]string) error {
	stepURL := strings.ReplaceAll(step.URL, model.AccountPlaceholder, account)
	u, err := url.Parse(stepURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	headers := make(map[string]string, len(step.Headers)+len(derived)+1)
	for k, v := range step.Headers {
		headers[k] = v
	}
	for k, v := range derived {
		headers[k] = v
	}
	if cookie := cookieHeader(jar, stepURL); cookie != "" {
		headers["Cookie"] = cookie
	}

	method := strings.ToUpper(step.Method)
	if method == "" {
		method = http.MethodGet
	}
	stepCtx, cancel := ctx, context.CancelFunc(func() {})
	if a.timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, a.timeout)
	}
	defer cancel()
	resp, err := a.doer.Do(stepCtx, &client.Request{
		Method:    method,
		URL:       stepURL,
		Body:      strings.ReplaceAll(step.Data, model.AccountPlaceholder, account),
		Headers:   headers,
		UserAgent: a.userAgent,
	})
	if err != nil {
		return err
	}
	if step.ECode != 0 && resp.StatusCode != step.ECode {
		return fmt.Errorf("unexpected status %d (want %d)", resp.StatusCode, step.ECode)
	}

	cookies := (&http.Response{Header: resp.Headers}).Cookies()
	jar.SetCookies(u, cookies)

	for _, ex := range step.Extract {
		value, err := extract(ex, resp, cookies)
		if err != nil {
			return err
		}
		derived[ex.Header] = ex.Prefix + value
	}
	return nil
}

// extract 从响应中取出一个值
func extract(ex model.Extraction, resp *model.Response, cookies []*http.Cookie) (string, error) {
	switch strings.ToLower(ex.From) {
	case model.ExtractFromCookie:
		for _, c := range cookies {
			if c.Name == ex.Key && c.Value != "" {
				return c.Value, nil
			}
		}
		return "", fmt.Errorf("cookie %q not set", ex.Key)
	case model.ExtractFromHeader:
		if v := resp.Headers.Get(ex.Key); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("header %q missing", ex.Key)
	case model.ExtractFromBody:
		re, err := regexp2.Compile(ex.Pattern, regexp2.None)
		if err != nil {
			return "", fmt.Errorf("invalid pattern: %w", err)
		}
		m, err := re.FindStringMatch(resp.Body)
		if err != nil || m == nil || len(m.Groups()) < 2 || m.Groups()[1].String() == "" {
			return "", fmt.Errorf("pattern %q did not match", ex.Pattern)
		}
		return m.Groups()[1].String(), nil
	case model.ExtractFromJSON:
		v, ok := metadata.Lookup(resp.JSON, ex.Path.Segments())
		if !ok {
			return "", fmt.Errorf("json path %s missing", ex.Path)
		}
		s := metadata.Stringify(v)
		if s == "" {
			return "", fmt.Errorf("json path %s empty", ex.Path)
		}
		return s, nil
	}
	return "", fmt.Errorf("unsupported extraction source %q", ex.From)
}

func cookieHeader(jar http.CookieJar, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	cookies := jar.Cookies(u)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
