package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ukwa/kevals.go/pkg/constants"
)

type HTTPConnection struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewHTTPConnection(p NewConnectionParams) *HTTPConnection {
	con := HTTPConnection{
		baseURL:    strings.TrimRight(p.BaseURL, "/"),
		httpClient: p.HTTPClient,
		logger:     p.Logger,
	}

	if con.httpClient == nil {
		con.httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		}
	}

	return &con
}

func (h *HTTPConnection) BaseURL() string {
	return h.baseURL
}

func (h *HTTPConnection) SetTimeout(timeout time.Duration) *HTTPConnection {
	h.httpClient.Timeout = timeout
	return h
}

func (h *HTTPConnection) SetHTTPClient(client *http.Client) *HTTPConnection {
	h.httpClient = client
	return h
}

// URL joins path and query onto the collection URL.
func (h *HTTPConnection) URL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (h *HTTPConnection) PostJSON(ctx context.Context, path string, query url.Values, body any) ([]byte, error) {
	if h.baseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	reqBody, err := encodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	target := h.URL(path, query)
	h.logger.Info().Str("url", target).Str("payload", truncate(reqBody, constants.MaxLoggedPayload)).Msg("update")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return h.MakeRequest(req)
}

func (h *HTTPConnection) PostForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if h.baseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	target := h.URL(path, nil)
	h.logger.Info().Str("url", target).Str("form", form.Encode()).Msg("query")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return h.MakeRequest(req)
}

// MakeRequest sends req and returns the body of a 200 response.
func (h *HTTPConnection) MakeRequest(req *http.Request) ([]byte, error) {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		h.logger.Debug().Int("status", resp.StatusCode).Str("url", req.URL.String()).Msg("upstream error")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBytes)}
	}

	return respBytes, nil
}

func encodeJSON(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
