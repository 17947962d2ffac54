package precheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neorecon/internal/core/model"
	"neorecon/internal/pkg/client"
)

func decodeRule(t *testing.T, raw string) *model.SiteRule {
	t.Helper()
	var r model.SiteRule
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return &r
}

func newClient(t *testing.T) *client.HTTPClient {
	c, err := client.NewHTTPClient(client.Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestRunExtractsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
			w.Header().Set("X-Guest", "guest-9")
			w.Write([]byte(`<meta name="app-id" content="app-77">`))
		case "/token":
			assert.Equal(t, "tok123", r.Header.Get("X-CSRF"))
			if c, err := r.Cookie("csrftoken"); assert.NoError(t, err) {
				assert.Equal(t, "tok123", c.Value)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"auth":{"token":"bearer-abc"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	rule := decodeRule(t, `{"name":"Site","uri_check":"`+srv.URL+`/u/{account}","e_code":200,
		"headers":{"Accept":"application/json"},
		"pre_check":[
			{"url":"`+srv.URL+`/login","e_code":200,"extract":[
				{"from":"cookie","key":"csrftoken","header":"X-CSRF"},
				{"from":"header","key":"X-Guest","header":"X-Guest-Token"},
				{"from":"body","pattern":"name=\"app-id\" content=\"([^\"]+)\"","header":"X-App-ID"}]},
			{"url":"`+srv.URL+`/token?u={account}","extract":[
				{"from":"json","path":["auth","token"],"header":"Authorization","prefix":"Bearer "}]}
		]}`)
	require.NoError(t, rule.Validate())

	headers, err := NewAuthenticator(newClient(t), "ua", time.Second).Run(context.Background(), rule, "alice")
	require.NoError(t, err)
	assert.Equal(t, "application/json", headers["Accept"])
	assert.Equal(t, "tok123", headers["X-CSRF"])
	assert.Equal(t, "guest-9", headers["X-Guest-Token"])
	assert.Equal(t, "app-77", headers["X-App-ID"])
	assert.Equal(t, "Bearer bearer-abc", headers["Authorization"])
	assert.Equal(t, "csrftoken=tok123", headers["Cookie"])
}

func TestRunFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forbidden" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("plain"))
	}))
	defer srv.Close()

	cases := map[string]string{
		"status":    `{"url":"` + srv.URL + `/forbidden","e_code":200}`,
		"cookie":    `{"url":"` + srv.URL + `/ok","extract":[{"from":"cookie","key":"sid","header":"X"}]}`,
		"json":      `{"url":"` + srv.URL + `/ok","extract":[{"from":"json","path":["a"],"header":"X"}]}`,
		"body":      `{"url":"` + srv.URL + `/ok","extract":[{"from":"body","pattern":"token=(\\w+)","header":"X"}]}`,
		"transport": `{"url":"http://127.0.0.1:1/unreachable"}`,
	}
	for name, step := range cases {
		t.Run(name, func(t *testing.T) {
			rule := decodeRule(t, `{"name":"Site","uri_check":"`+srv.URL+`/u/{account}","e_code":200,"pre_check":`+step+`}`)
			_, err := NewAuthenticator(newClient(t), "ua", time.Second).Run(context.Background(), rule, "alice")
			assert.ErrorIs(t, err, ErrPreCheckFailed)
		})
	}
}

func TestRunWithoutPreCheck(t *testing.T) {
	rule := decodeRule(t, `{"name":"Site","uri_check":"https://example.com/{account}","e_code":200,"headers":{"A":"1"}}`)
	headers, err := NewAuthenticator(nil, "ua", 0).Run(context.Background(), rule, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1"}, headers)
}

// slowDoer 每次调用耗时 delay, 超时则返回 ctx 错误
type slowDoer struct {
	delay time.Duration
}

func (d slowDoer) Do(ctx context.Context, _ *client.Request) (*model.Response, error) {
	select {
	case <-time.After(d.delay):
		return &model.Response{StatusCode: http.StatusOK, Headers: http.Header{"X-Token": {"t"}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRunTimeoutIsPerStep(t *testing.T) {
	rule := decodeRule(t, `{"name":"Site","uri_check":"https://example.com/{account}","e_code":200,
		"pre_check":[
			{"url":"https://example.com/a","extract":[{"from":"header","key":"X-Token","header":"X-A"}]},
			{"url":"https://example.com/b","extract":[{"from":"header","key":"X-Token","header":"X-B"}]}
		]}`)

	auth := NewAuthenticator(slowDoer{delay: 40 * time.Millisecond}, "ua", 60*time.Millisecond)
	headers, err := auth.Run(context.Background(), rule, "alice")
	require.NoError(t, err)
	assert.Equal(t, "t", headers["X-A"])
	assert.Equal(t, "t", headers["X-B"])

	auth = NewAuthenticator(slowDoer{delay: 200 * time.Millisecond}, "ua", 30*time.Millisecond)
	_, err = auth.Run(context.Background(), rule, "alice")
	assert.ErrorIs(t, err, ErrPreCheckFailed)
}
