package httpserver

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/logging"
)

// newTransport is shared by every upstream so idle connections are pooled
// per gateway, not per route.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func stripPath(u *url.URL, prefix string) {
	if prefix == "" || !strings.HasPrefix(u.Path, prefix) {
		return
	}
	u.Path = strings.TrimPrefix(u.Path, prefix)
	if u.Path == "" {
		u.Path = "/"
	}
	if u.RawPath != "" {
		u.RawPath = strings.TrimPrefix(u.RawPath, prefix)
	}
}

// upstream forwards to one service, dropping prefix from the path first.
func upstream(target, prefix string, tr http.RoundTripper) (echo.HandlerFunc, error) {
	base, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	p := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			stripPath(pr.Out.URL, prefix)
			pr.SetURL(base)
			pr.SetXForwarded()
			if fp := pr.In.Header.Get("X-Forwarded-Proto"); fp != "" {
				pr.Out.Header.Set("X-Forwarded-Proto", fp)
			}
		},
		Transport: tr,
		// event streams are flushed on every write regardless of this interval
		FlushInterval: 100 * time.Millisecond,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.FromContext(r.Context()).Error("upstream_failed", "status", 502, "upstream", base.Host, "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream unavailable"}`))
		},
	}

	return func(c echo.Context) error {
		req := c.Request()
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			req.Header.Set(echo.HeaderXRequestID, id)
		}
		p.ServeHTTP(c.Response(), req)
		return nil
	}, nil
}
