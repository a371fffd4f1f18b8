package yuque

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	json "github.com/goccy/go-json"

	"github.com/quantmind-br/yuqueback-go/internal/config"
	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/ratelimit"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// UserAgent identifies the tool to the remote service.
const UserAgent = "Mozilla/5.0 (compatible; yuqueback)"

const (
	authHeader = "X-Auth-Token"
	apiPrefix  = "/api/v2"
)

// envelope is the API response wrapper. Every endpoint nests its
// payload under "data".
type envelope[T any] struct {
	Data T `json:"data"`
}

// Client talks to the Yuque HTTP API. Every request passes the rate
// gate first, including each retry attempt.
type Client struct {
	http     tls_client.HttpClient
	host     string
	token    config.Token
	target   config.TargetConfig
	pageSize int
	gate     ratelimit.Limiter
	retrier  *Retrier
	logger   *utils.Logger
}

var _ domain.RepositoryClient = (*Client)(nil)

// Options contains options for creating a Client
type Options struct {
	Host     string
	Token    config.Token
	Target   config.TargetConfig
	PageSize int
	Timeout  time.Duration
	Gate     ratelimit.Limiter
	Retrier  *Retrier
	Logger   *utils.Logger
}

// NewClient creates an API client. A nil Gate disables rate limiting
// and a nil Retrier gives every request a single attempt.
func NewClient(opts Options) (*Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = config.DefaultPageSize
	}
	if opts.Gate == nil {
		opts.Gate = ratelimit.NoOp{}
	}

	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(opts.Timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &Client{
		http:     httpClient,
		host:     strings.TrimRight(opts.Host, "/"),
		token:    opts.Token,
		target:   opts.Target,
		pageSize: opts.PageSize,
		gate:     opts.Gate,
		retrier:  opts.Retrier,
		logger:   opts.Logger,
	}, nil
}

// ListBooks fetches every book of the configured target.
func (c *Client) ListBooks(ctx context.Context) ([]domain.Book, error) {
	url := fmt.Sprintf("%s%s/%s/%s/repos?limit=%d",
		c.host, apiPrefix, c.target.Type, c.target.Login, c.pageSize)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	books, err := decodeData[[]domain.Book](url, body)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("count", len(books)).
			Str("login", c.target.Login).
			Msg("Listed books")
	}
	return books, nil
}

// ListDocumentMetadata fetches the document listing of a book. The
// listing endpoint carries no book reference, so each entry is stamped
// with the book id before it is returned.
func (c *Client) ListDocumentMetadata(ctx context.Context, book domain.Book) ([]domain.DocumentMeta, error) {
	url := fmt.Sprintf("%s%s/repos/%d/docs?limit=%d", c.host, apiPrefix, book.ID, c.pageSize)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	metas, err := decodeData[[]domain.DocumentMeta](url, body)
	if err != nil {
		return nil, err
	}

	for i := range metas {
		metas[i].BookID = book.ID
	}
	return metas, nil
}

// FetchDocument fetches the full document body for a listing entry.
func (c *Client) FetchDocument(ctx context.Context, meta domain.DocumentMeta) (*domain.Document, error) {
	url := fmt.Sprintf("%s%s/repos/%d/docs/%d", c.host, apiPrefix, meta.BookID, meta.ID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := decodeData[domain.Document](url, body)
	if err != nil {
		return nil, err
	}

	doc.BookID = meta.BookID
	return &doc, nil
}

// FetchResource downloads a document attachment to dest. The file is
// created fresh; an existing file at dest fails the download instead
// of being overwritten.
func (c *Client) FetchResource(ctx context.Context, url, dest string) error {
	if err := c.gate.Wait(ctx); err != nil {
		return err
	}

	req, err := fhttp.NewRequest(fhttp.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(authHeader, string(c.token))

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.FetchError{URL: url, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &domain.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	f, err := utils.CreateNew(dest)
	if err != nil {
		return &domain.WriteError{Path: dest, Err: err}
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return &domain.WriteError{Path: dest, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &domain.WriteError{Path: dest, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.WriteError{Path: dest, Err: err}
	}
	return nil
}

// Close releases client resources
func (c *Client) Close() error {
	// tls-client keeps no resources that need explicit release
	return nil
}

// get performs a rate-gated GET. With a retrier configured the gate
// and request run inside each attempt, so retries are throttled too.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	attempt := func() ([]byte, error) {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}
		return c.doGet(url)
	}

	if c.retrier == nil {
		return attempt()
	}
	return RetryWithValue(ctx, c.retrier, attempt)
}

// doGet performs the actual HTTP request
func (c *Client) doGet(targetURL string) ([]byte, error) {
	req, err := fhttp.NewRequest(fhttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(authHeader, string(c.token))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: targetURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fetchErr := &domain.FetchError{
			URL:        targetURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        fetchErr,
				RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		return nil, fetchErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// decodeData unwraps the API envelope around a payload.
func decodeData[T any](url string, body []byte) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		var zero T
		return zero, &domain.DecodeError{URL: url, Err: err}
	}
	return env.Data, nil
}
