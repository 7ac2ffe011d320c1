// Package apiclient talks to the gateway on behalf of quotectl. It keeps
// the session cookies itself so they can be written back to the state file.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/veranda/pkg/basket"
)

const (
	csrfCookie = "XSRF-TOKEN"
	csrfHeader = "X-CSRF-Token"
)

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

var _ basket.Submitter = (*Client)(nil)

func New(baseURL string, cookies []*http.Cookie) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		cookies: make(map[string]*http.Cookie, len(cookies)),
	}
	for _, ck := range cookies {
		c.cookies[ck.Name] = ck
	}
	return c
}

// Cookies returns the current session cookies, for persisting.
func (c *Client) Cookies() []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*http.Cookie, 0, len(c.cookies))
	for _, ck := range c.cookies {
		out = append(out, ck)
	}
	return out
}

func (c *Client) absorb(res *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range res.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		if ck.MaxAge > 0 && ck.Expires.IsZero() {
			ck.Expires = time.Now().Add(time.Duration(ck.MaxAge) * time.Second)
		}
		c.cookies[ck.Name] = ck
	}
}

func (c *Client) cookie(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ck, ok := c.cookies[name]; ok {
		return ck.Value
	}
	return ""
}

func (c *Client) origin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	c.mu.Unlock()

	if method != http.MethodGet && method != http.MethodHead {
		req.Header.Set("Origin", c.origin())
		if tok := c.cookie(csrfCookie); tok != "" {
			req.Header.Set(csrfHeader, tok)
		}
	}
	return req, nil
}

// ensureCSRF fetches a cheap public page so the gateway hands out a token.
func (c *Client) ensureCSRF(ctx context.Context) error {
	if c.cookie(csrfCookie) != "" {
		return nil
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/catalog/categories", nil, nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	c.absorb(res)
	return nil
}

func decodeError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{Status: res.StatusCode, Message: msg}
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	if method != http.MethodGet {
		if err := c.ensureCSRF(ctx); err != nil {
			return nil, err
		}
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	c.absorb(res)
	if res.StatusCode >= 400 {
		defer res.Body.Close()
		return nil, decodeError(res)
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	res, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var u User
	return &u, c.do(ctx, http.MethodPost, "/auth/register", nil, in, &u)
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	in := map[string]string{"email": email, "password": password}
	return &out, c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	return &u, c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u)
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*ProductList, error) {
	v := url.Values{}
	if q.CategoryID != "" {
		v.Set("categoryId", q.CategoryID)
	}
	if q.MaterialID != "" {
		v.Set("materialId", q.MaterialID)
	}
	if q.All {
		v.Set("availability", "all")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	var out ProductList
	return &out, c.do(ctx, http.MethodGet, "/catalog/products", v, nil, &out)
}

func (c *Client) SearchProducts(ctx context.Context, query string) (*ProductList, error) {
	var out ProductList
	return &out, c.do(ctx, http.MethodGet, "/catalog/products/search", url.Values{"q": {query}}, nil, &out)
}

func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	var out Product
	return &out, c.do(ctx, http.MethodGet, "/catalog/products/"+url.PathEscape(id), nil, nil, &out)
}

// SubmitRequest creates one quote request from the basket items.
func (c *Client) SubmitRequest(ctx context.Context, items []basket.RequestItem, notes string) (string, error) {
	in := struct {
		Items []basket.RequestItem `json:"items"`
		Notes *string              `json:"notes,omitempty"`
	}{Items: items}
	if n := strings.TrimSpace(notes); n != "" {
		in.Notes = &n
	}
	var out QuoteRequest
	if err := c.do(ctx, http.MethodPost, "/quotes/requests", nil, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Requests(ctx context.Context, status, since string) ([]QuoteRequest, error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", status)
	}
	if since != "" {
		v.Set("since", since)
	}
	var out []QuoteRequest
	return out, c.do(ctx, http.MethodGet, "/quotes/requests", v, nil, &out)
}

func (c *Client) Request(ctx context.Context, id string) (*QuoteRequest, error) {
	var out QuoteRequest
	return &out, c.do(ctx, http.MethodGet, "/quotes/requests/"+url.PathEscape(id), nil, nil, &out)
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*QuoteRequest, error) {
	var out QuoteRequest
	in := map[string]string{"status": status}
	return &out, c.do(ctx, http.MethodPatch, "/quotes/requests/"+url.PathEscape(id), nil, in, &out)
}

func (c *Client) Messages(ctx context.Context, requestID string) ([]Message, error) {
	var out []Message
	return out, c.do(ctx, http.MethodGet, "/quotes/requests/"+url.PathEscape(requestID)+"/messages", nil, nil, &out)
}

func (c *Client) PostMessage(ctx context.Context, requestID, content string) (*Message, error) {
	var out Message
	in := map[string]string{"quoteRequestId": requestID, "content": content}
	return &out, c.do(ctx, http.MethodPost, "/quotes/messages", nil, in, &out)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	return &out, c.do(ctx, http.MethodGet, "/quotes/stats", nil, nil, &out)
}

func (c *Client) ExportCSV(ctx context.Context, w io.Writer) error {
	res, err := c.send(ctx, http.MethodGet, "/quotes/requests/export.csv", nil, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, err = io.Copy(w, res.Body)
	return err
}
