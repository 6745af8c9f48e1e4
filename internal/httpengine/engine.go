// Package httpengine is the single connection-pooled HTTP client shared by
// every product client. It injects authentication, applies the configured
// timeouts, speaks JSON both ways and maps failures onto the error taxonomy.
package httpengine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
)

const (
	userAgent        = "mcpatlas/1.0"
	maxErrorBodySize = 2048

	retryInitialInterval = 100 * time.Millisecond
	retryMultiplier      = 2.0
	retryJitter          = 0.25
)

// Engine is safe for concurrent use; request state is per call.
type Engine struct {
	client     *http.Client
	creds      config.Credentials
	authType   config.AuthType
	maxRetries int
	logger     *zap.Logger
}

// New builds the engine from the runtime profile.
func New(cfg *config.RuntimeConfig, logger *zap.Logger) *Engine {
	connect := time.Duration(cfg.Timeouts.ConnectMs) * time.Millisecond
	read := time.Duration(cfg.Timeouts.ReadMs) * time.Millisecond

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connect,
		}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Engine{
		client: &http.Client{
			Transport: transport,
			Timeout:   read,
		},
		creds:      cfg.Credentials,
		authType:   cfg.EffectiveAuthType(),
		maxRetries: cfg.Preferences.MaxRetries,
		logger:     logger,
	}
}

// DoJSON issues one authenticated JSON request against the absolute URL.
// body may be nil; out may be nil for operations with no response payload.
// GET requests are retried on server errors and transport errors; mutating
// requests are retried on transport errors only, to avoid double writes.
func (e *Engine) DoJSON(ctx context.Context, method, url string, body, out interface{}) error {
	attempt := func() (struct{}, error) {
		err := e.once(ctx, method, url, body, out, true)
		if err == nil {
			return struct{}{}, nil
		}
		if e.shouldRetry(method, err) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.Multiplier = retryMultiplier
	b.RandomizationFactor = retryJitter

	maxTries := e.maxRetries
	if maxTries < 1 {
		maxTries = 1
	}
	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxTries)),
	)
	return err
}

// FetchRaw issues an unauthenticated GET and returns the body as text.
// Used by the content scraper, which talks to arbitrary public URLs.
func (e *Engine) FetchRaw(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindArgument, err, "bad URL %q", url)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", e.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", e.statusError(resp, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", e.transportError(ctx, err)
	}
	return string(data), nil
}

func (e *Engine) shouldRetry(method string, err error) bool {
	var ae *apperrors.Error
	if !errors.As(err, &ae) {
		return false
	}
	if ae.Cancelled {
		return false
	}
	switch ae.Kind {
	case apperrors.KindTransport:
		return true
	case apperrors.KindServer:
		return method == http.MethodGet
	default:
		return false
	}
}

func (e *Engine) once(ctx context.Context, method, url string, body, out interface{}, auth bool) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.KindProtocol, err, "cannot encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return apperrors.Wrap(apperrors.KindArgument, err, "bad URL %q", url)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		e.injectAuth(req)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return e.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return e.statusError(resp, e.logger)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.KindProtocol, err, "response from %s does not parse", url)
	}
	return nil
}

// injectAuth sets Basic email:secret for API tokens, Bearer for PATs.
func (e *Engine) injectAuth(req *http.Request) {
	switch e.authType {
	case config.AuthPersonalAccessToken:
		req.Header.Set("Authorization", "Bearer "+e.creds.Secret)
	default:
		raw := e.creds.Email + ":" + e.creds.Secret
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(raw)))
	}
}

func (e *Engine) transportError(ctx context.Context, err error) *apperrors.Error {
	ae := apperrors.Wrap(apperrors.KindTransport, err, "request failed")
	if ctx.Err() != nil {
		ae.Cancelled = true
		ae.Message = "cancelled"
	}
	return ae
}

func (e *Engine) statusError(resp *http.Response, logger *zap.Logger) *apperrors.Error {
	detail := extractErrorMessage(resp.Body)
	if detail == "" {
		detail = resp.Status
	}

	var ae *apperrors.Error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		ae = apperrors.New(apperrors.KindNotFound, "%s", detail)
	case resp.StatusCode >= 500:
		ae = apperrors.New(apperrors.KindServer, "HTTP %d: %s", resp.StatusCode, detail)
	default:
		ae = apperrors.New(apperrors.KindClient, "HTTP %d: %s", resp.StatusCode, detail)
	}
	ae.StatusCode = resp.StatusCode

	if logger != nil {
		logger.Debug("remote returned an error status",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
	}
	return ae
}

// extractErrorMessage pulls the operator-facing message out of an Atlassian
// style error body. Falls back to the raw (truncated) body text.
func extractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}

	var envelope struct {
		ErrorMessages []string          `json:"errorMessages"`
		Message       string            `json:"message"`
		ErrorText     string            `json:"error"`
		Errors        map[string]string `json:"errors"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		switch {
		case len(envelope.ErrorMessages) > 0:
			return strings.Join(envelope.ErrorMessages, "; ")
		case envelope.Message != "":
			return envelope.Message
		case envelope.ErrorText != "":
			return envelope.ErrorText
		case len(envelope.Errors) > 0:
			parts := make([]string, 0, len(envelope.Errors))
			for k, v := range envelope.Errors {
				parts = append(parts, fmt.Sprintf("%s: %s", k, v))
			}
			return strings.Join(parts, "; ")
		}
	}

	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
