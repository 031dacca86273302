package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ecatalog-admin/internal/infra/logx"
)

// Client talks to the e-Catalog REST API. All resource operations hang off
// it; auth state lives in the injected Session.
type Client struct {
	base    string
	http    *http.Client
	session *Session
	metrics *Metrics
}

// New creates a client against baseURL (no trailing slash) using the
// retrying, rate-limited transport.
func New(baseURL string, session *Session) *Client {
	opts := DefaultTransportOptions()
	tr := NewTransport(opts)
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second, Transport: tr},
		session: session,
		metrics: opts.Metrics,
	}
}

// Session returns the injected auth session.
func (c *Client) Session() *Session { return c.session }

// Metrics returns the transport counters for the stats footer.
func (c *Client) Metrics() *Metrics { return c.metrics }

// Error is a decoded API failure: HTTP status plus the server's detail
// message or per-field validation errors.
type Error struct {
	Status int
	Detail string
	Fields map[string][]string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Detail)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
		}
		return fmt.Sprintf("api: %d: %s", e.Status, strings.Join(parts, " | "))
	}
	return fmt.Sprintf("api: %d: %s", e.Status, http.StatusText(e.Status))
}

// IsAuthError reports whether err is a 401/403 API error.
func IsAuthError(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden
	}
	return false
}

func (c *Client) url(path string, q url.Values) string {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do issues the request, injects the bearer token, and maps non-2xx
// responses to *Error. A 401/403 additionally invalidates the session,
// which is where the single redirect-to-login latch lives.
func (c *Client) do(req *http.Request, out any) error {
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		apiErr := decodeError(res)
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			logx.Warnw("auth rejected", logx.Fields{"path": req.URL.Path, "status": apiErr.Status})
			c.session.Invalidate()
		}
		return apiErr
	}
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		b, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		*raw = b
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// decodeError maps the response body into *Error. The backend returns either
// {"detail": "..."} or a {field: [messages]} validation map.
func decodeError(res *http.Response) *Error {
	apiErr := &Error{Status: res.StatusCode}
	body, err := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Detail = strings.TrimSpace(string(body))
		return apiErr
	}
	if raw, ok := payload["detail"]; ok {
		var detail string
		if json.Unmarshal(raw, &detail) == nil {
			apiErr.Detail = detail
			return apiErr
		}
	}
	fields := make(map[string][]string, len(payload))
	for k, raw := range payload {
		var msgs []string
		if json.Unmarshal(raw, &msgs) == nil {
			fields[k] = msgs
			continue
		}
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			fields[k] = []string{msg}
		}
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
	}
	return apiErr
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, q), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.write(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.write(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url(path, nil), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) write(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, nil), rdr)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// FilePart names one file for a multipart upload.
type FilePart struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// postMultipart uploads files plus form fields. Used for image uploads and
// chat attachments; the WebSocket never carries binary payloads.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, files []FilePart, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

// list fetches one page of a collection endpoint.
func list[T any](ctx context.Context, c *Client, path string, opts ListOpts) (Page[T], error) {
	var page Page[T]
	err := c.get(ctx, path, opts.query(), &page)
	return page, err
}
