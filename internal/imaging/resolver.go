package imaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/feedarr/feedarr/internal/config"
	"github.com/feedarr/feedarr/internal/httpclient"
	"github.com/feedarr/feedarr/internal/ingestor"
	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/observability"
	"github.com/feedarr/feedarr/internal/repository"
)

// Resolver produces processed channel artwork through the fallback chain:
// override rules first, then the channel's own logo URL (served from the
// local mirror when it points there, fetched otherwise), and finally a
// generated placeholder. Every outcome is cached, so resolution never
// returns an error to the caller beyond context cancellation and cache
// reads.
type Resolver struct {
	cache     repository.ImageCacheRepository
	overrides repository.OverrideRepository
	snapshots repository.SnapshotRepository
	mirror    *Mirror
	client    *httpclient.Client
	limiter   *rate.Limiter
	maxBytes  int64
	logger    *slog.Logger
}

// NewResolver creates a Resolver with a rate-limited fetch client built
// from the imaging configuration.
func NewResolver(
	cfg config.ImagingConfig,
	cache repository.ImageCacheRepository,
	overrides repository.OverrideRepository,
	snapshots repository.SnapshotRepository,
	mirror *Mirror,
	logger *slog.Logger,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	logger = observability.WithComponent(logger, "imaging")

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.FetchPerSecond <= 0 {
		cfg.FetchPerSecond = 5
	}
	if cfg.FetchBurst <= 0 {
		cfg.FetchBurst = 1
	}
	maxBytes := cfg.MaxImageSize.Bytes()
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	// Artwork fetches use the same retry and circuit breaker policy as
	// source fetches, only with a tighter per-request timeout.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.FetchTimeout
	clientCfg.Logger = logger
	client := httpclient.New(clientCfg)

	return &Resolver{
		cache:     cache,
		overrides: overrides,
		snapshots: snapshots,
		mirror:    mirror,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(cfg.FetchPerSecond), cfg.FetchBurst),
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Resolve returns the processed artwork for a channel and kind, consulting
// the cache first and walking the fallback chain on a miss. The result is
// written to the cache before returning; a failed cache write is logged
// but does not fail the resolution.
func (r *Resolver) Resolve(ctx context.Context, tenant *models.Tenant, channelID string, kind models.ImageKind) (*models.ImageCacheEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidImageKind, kind)
	}

	cached, err := r.cache.Get(ctx, tenant.ID, channelID, kind)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	channel, err := r.snapshots.GetChannelByID(ctx, tenant.ID, channelID)
	if err != nil {
		return nil, err
	}

	name := channelID
	if channel != nil && channel.Name != "" {
		name = channel.Name
	}

	entry := r.resolve(ctx, tenant, channel, channelID, name, kind)

	if err := r.cache.Put(ctx, entry); err != nil {
		r.logger.Warn("caching resolved image failed",
			"tenant_id", tenant.ID.String(),
			"channel_id", channelID,
			"kind", string(kind),
			"error", err)
	}
	return entry, nil
}

// resolve walks the fallback chain and always produces an entry.
func (r *Resolver) resolve(ctx context.Context, tenant *models.Tenant, channel *models.Channel, channelID, name string, kind models.ImageKind) *models.ImageCacheEntry {
	sourceURL, origin := r.pickURL(ctx, tenant, channel, channelID)

	if sourceURL != "" && sourceURL != ingestor.GenericLogoURL {
		if raw, ok := r.mirror.Lookup(tenant, sourceURL); ok {
			if data, contentType, err := Process(raw, kind); err == nil {
				return r.newEntry(tenant, channelID, kind, models.ImageOriginMirror, contentType, data)
			} else {
				r.logger.Warn("processing mirrored image failed",
					"channel_id", channelID, "url", sourceURL, "error", err)
			}
		} else if raw, err := r.fetch(ctx, sourceURL); err == nil {
			if data, contentType, perr := Process(raw, kind); perr == nil {
				return r.newEntry(tenant, channelID, kind, origin, contentType, data)
			} else {
				r.logger.Warn("processing fetched image failed",
					"channel_id", channelID, "url", sourceURL, "error", perr)
			}
		} else {
			r.logger.Debug("fetching image failed, falling back to placeholder",
				"channel_id", channelID, "url", sourceURL, "error", err)
		}
	}

	data, contentType, err := Placeholder(channelID, name, kind)
	if err != nil {
		// Placeholder rendering only fails if PNG encoding of an in-memory
		// canvas fails; produce an empty entry rather than error out.
		r.logger.Error("rendering placeholder failed", "channel_id", channelID, "error", err)
		data, contentType = nil, "image/png"
	}
	return r.newEntry(tenant, channelID, kind, models.ImageOriginPlaceholder, contentType, data)
}

// pickURL selects the artwork URL for a channel: exact override, then
// pattern overrides in insertion order, then the channel's own logo URL.
func (r *Resolver) pickURL(ctx context.Context, tenant *models.Tenant, channel *models.Channel, channelID string) (string, models.ImageOrigin) {
	overrides, err := r.overrides.GetByTenant(ctx, tenant.ID)
	if err != nil {
		r.logger.Warn("loading overrides failed", "tenant_id", tenant.ID.String(), "error", err)
		overrides = nil
	}

	for _, o := range overrides {
		if !o.IsPattern && o.Match == channelID {
			return o.TargetURL, models.ImageOriginOverride
		}
	}
	for _, o := range overrides {
		if o.IsPattern && o.Matches(channelID) {
			return o.TargetURL, models.ImageOriginOverride
		}
	}

	if channel != nil {
		return channel.LogoURL, models.ImageOriginNetwork
	}
	return "", models.ImageOriginNetwork
}

// fetch retrieves artwork over HTTP, honoring the rate limiter and size
// bound and rejecting non-image responses.
func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for fetch slot: %w", err)
	}

	resp, err := r.client.GetOK(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image body: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("image exceeds size limit of %d bytes", r.maxBytes)
	}
	return data, nil
}

func (r *Resolver) newEntry(tenant *models.Tenant, channelID string, kind models.ImageKind, origin models.ImageOrigin, contentType string, data []byte) *models.ImageCacheEntry {
	return &models.ImageCacheEntry{
		TenantID:    tenant.ID,
		ChannelID:   channelID,
		Kind:        kind,
		SizeKey:     kind.SizeKey(),
		Origin:      origin,
		ContentType: contentType,
		Data:        data,
	}
}
