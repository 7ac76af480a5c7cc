package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"github.com/velora/messaging-services/msggateway/pkg/cache"
	"go.uber.org/zap"
)

const directoryCacheNamespace = "provider_directory"
const directoryNegativeEntry = "-"

// DirectoryQuery carries the identifiers a provider reports about itself on
// an inbound webhook.
type DirectoryQuery struct {
	Provider          model.ProviderKey
	SenderID          string
	DisplayAddress    string
	BusinessAccountID string
}

// ProviderDirectory maps a webhook's provider-supplied identifiers back to
// the owning tenant. Lookups run in strict priority: sender id, then
// normalized display address, then business-account id. Results, including
// misses, are cached briefly to absorb webhook bursts.
type ProviderDirectory interface {
	ResolveTenant(ctx context.Context, query DirectoryQuery) (int64, error)
}

type providerDirectory struct {
	senders repository.ProviderSenderRepository
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

func NewProviderDirectory(senders repository.ProviderSenderRepository, cacheClient cache.Cache,
	ttl time.Duration, logger *zap.Logger) ProviderDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &providerDirectory{senders: senders, cache: cacheClient, ttl: ttl, logger: logger}
}

func (d *providerDirectory) ResolveTenant(ctx context.Context, query DirectoryQuery) (int64, error) {
	key := d.cacheKey(query)

	if cached, err := d.cache.Get(ctx, directoryCacheNamespace, key); err == nil {
		if cached == directoryNegativeEntry {
			return 0, ErrTenantNotResolved
		}
		tenantID, parseErr := strconv.ParseInt(cached, 10, 64)
		if parseErr == nil {
			return tenantID, nil
		}
		d.logger.Warn("Corrupt directory cache entry, falling through to lookup",
			zap.String("key", key),
			zap.String("value", cached))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		d.logger.Debug("Directory cache unavailable", zap.Error(err))
	}

	tenantID, err := d.lookup(ctx, query)
	if err != nil {
		if errors.Is(err, ErrTenantNotResolved) {
			d.store(ctx, key, directoryNegativeEntry)
		}
		return 0, err
	}

	d.store(ctx, key, strconv.FormatInt(tenantID, 10))

	return tenantID, nil
}

func (d *providerDirectory) lookup(ctx context.Context, query DirectoryQuery) (int64, error) {
	if query.SenderID != "" {
		tenantID, err := d.senders.FindTenantBySenderID(ctx, query.Provider, query.SenderID)
		if err == nil {
			return tenantID, nil
		}
		if !errors.Is(err, repository.ErrTenantNotFound) {
			return 0, err
		}
	}

	if address := normalizeAddress(query.DisplayAddress); address != "" {
		tenantID, err := d.senders.FindTenantByDisplayAddress(ctx, query.Provider, address)
		if err == nil {
			return tenantID, nil
		}
		if !errors.Is(err, repository.ErrTenantNotFound) {
			return 0, err
		}
	}

	if query.BusinessAccountID != "" {
		tenantID, err := d.senders.FindTenantByBusinessAccount(ctx, query.Provider, query.BusinessAccountID)
		if err == nil {
			return tenantID, nil
		}
		if !errors.Is(err, repository.ErrTenantNotFound) {
			return 0, err
		}
	}

	d.logger.Info("No tenant for webhook identifiers",
		zap.String("provider", string(query.Provider)),
		zap.String("senderID", query.SenderID),
		zap.String("businessAccountID", query.BusinessAccountID))

	return 0, ErrTenantNotResolved
}

// cacheKey is the full normalized tuple. Caching by the raw provider string
// alone would let casing differences resurrect stale misses.
func (d *providerDirectory) cacheKey(query DirectoryQuery) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		strings.ToUpper(string(query.Provider)),
		query.SenderID,
		normalizeAddress(query.DisplayAddress),
		query.BusinessAccountID)
}

func (d *providerDirectory) store(ctx context.Context, key, value string) {
	if err := d.cache.Set(ctx, directoryCacheNamespace, key, value, d.ttl); err != nil {
		d.logger.Debug("Failed to cache directory entry", zap.Error(err))
	}
}

// normalizeAddress strips formatting from a display address but keeps a
// leading plus, so "+1 (555) 123-4567" and "15551234567" compare sanely.
func normalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range address {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
