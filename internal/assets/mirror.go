package assets

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/yuqueback-go/internal/cache"
	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// DefaultCacheTTL bounds how long a mirrored attachment is reused
// before it is refetched.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Mirror downloads attachments hosted on the backup host into the
// run's files directory. It runs as a post-write hook; a failed
// attachment is reported but never undoes the document backup.
type Mirror struct {
	client   domain.RepositoryClient
	cache    domain.Cache
	cacheTTL time.Duration
	host     *url.URL
	dir      string
	logger   *utils.Logger
}

var _ domain.Hook = (*Mirror)(nil)

// MirrorOptions contains options for creating a Mirror
type MirrorOptions struct {
	Client   domain.RepositoryClient
	Cache    domain.Cache
	CacheTTL time.Duration
	Host     string
	Dir      string
	Logger   *utils.Logger
}

// NewMirror creates the attachment mirroring hook. Cache is optional;
// without one every attachment is fetched from the remote host.
func NewMirror(opts MirrorOptions) (*Mirror, error) {
	host, err := url.Parse(opts.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	return &Mirror{
		client:   opts.Client,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		host:     host,
		dir:      opts.Dir,
		logger:   opts.Logger,
	}, nil
}

// Name implements domain.Hook
func (m *Mirror) Name() string {
	return "assets"
}

// AfterWrite scans the stored document for attachments on the backup
// host and downloads each one into the files directory.
func (m *Mirror) AfterWrite(ctx context.Context, doc *domain.Document) error {
	var candidates []string
	if doc.Body != nil {
		candidates = append(candidates, ExtractLinks(*doc.Body)...)
	}
	if doc.BodyHTML != nil {
		candidates = append(candidates, ExtractHTMLAssets(*doc.BodyHTML)...)
	}

	var firstErr error
	for _, link := range SameHost(m.host, dedupe(candidates)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.fetchOne(ctx, link); err != nil {
			if m.logger != nil {
				m.logger.Warn().
					Err(err).
					Str("url", link).
					Int64("doc_id", doc.ID).
					Msg("Attachment mirror failed")
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// fetchOne downloads one attachment unless it is already present in
// the files directory.
func (m *Mirror) fetchOne(ctx context.Context, link string) error {
	name := ResourceName(link)
	if name == "" {
		return nil
	}
	dest := filepath.Join(m.dir, name)

	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	if m.cache != nil {
		if data, err := m.cache.Get(ctx, cache.ResourceKey(link)); err == nil {
			return utils.WriteFileNew(dest, data)
		}
	}

	if err := m.client.FetchResource(ctx, link, dest); err != nil {
		return err
	}

	if m.cache != nil {
		if data, err := os.ReadFile(dest); err == nil {
			_ = m.cache.Set(ctx, cache.ResourceKey(link), data, m.cacheTTL)
		}
	}
	return nil
}
