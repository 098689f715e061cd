package opinion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://proxy.opinion.trade:8443"

	// Rate limits conservadores (~60% de los documentados).
	// orderbook: 100/10s → 6/s; resto del openapi: 300/10s → 18/s
	booksRatePerSec   = 6
	generalRatePerSec = 18

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	// errnos conocidos del envelope del venue
	errnoOK                  = 0
	errnoGeoRestricted       = 10403
	errnoInsufficientBalance = 10207
)

// apiError es un error de negocio devuelto en el envelope errno/errmsg.
type apiError struct {
	Errno int
	Msg   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("venue error %d: %s", e.Errno, e.Msg)
}

// Client es el HTTP client del openapi de OpinionLabs con rate limiting
// y retries. La autenticación es por API key; la firma de órdenes la
// resuelve el venue del otro lado.
type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	limiter      *rate.Limiter
	booksLimiter *rate.Limiter
}

// NewClient crea un Client. Si baseURL está vacío usa el host de producción.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		apiKey:       apiKey,
		limiter:      rate.NewLimiter(generalRatePerSec, 10),
		booksLimiter: rate.NewLimiter(booksRatePerSec, 3),
	}
}

// get hace un GET con rate limiting y retries, decodificando el envelope.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, path string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	}, out)
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, limiter *rate.Limiter, path string, body, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Request, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// del hace un DELETE con rate limiting y retries.
func (c *Client) del(ctx context.Context, limiter *rate.Limiter, path string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	}, out)
}

// doWithRetry ejecuta el request con backoff exponencial. Los errores de
// negocio del envelope (errno != 0) no se reintentan: son deterministas.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, build func() (*http.Request, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := build()
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("apikey", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by venue", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = decodeEnvelope(resp.Body, out)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// decodeEnvelope decodifica el envelope errno/errmsg y extrae result en out.
// Es el único punto donde se parsea la respuesta cruda del venue: si el
// payload no tiene la forma esperada, fallamos acá con un decode error en
// vez de devolver ceros silenciosos aguas abajo.
func decodeEnvelope(r io.Reader, out any) error {
	var env apiEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	if env.Errno != errnoOK {
		return &apiError{Errno: env.Errno, Msg: env.Errmsg}
	}

	if out == nil {
		return nil
	}
	if len(env.Result) == 0 {
		return fmt.Errorf("decode envelope: empty result")
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
