package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-banklink/core"
	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const bankAccountCacheKeyPrefix = "banklink::bank_account::v1"

type bankAccountBackend interface {
	core.BankAccountStore
	core.BankAccountReader
}

// CachedBankAccountReader fronts the read side with go-repository-cache.
// Writes go through Create so the affected keys are dropped. Cached values
// never hold access tokens.
type CachedBankAccountReader struct {
	base   bankAccountBackend
	cache  repositorycache.CacheService
	logger glog.Logger
}

func NewCachedBankAccountReader(
	base bankAccountBackend,
	cacheService repositorycache.CacheService,
) (*CachedBankAccountReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base bank account store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: bank account cache service is required")
	}
	return &CachedBankAccountReader{base: base, cache: cacheService, logger: glog.Nop()}, nil
}

func (s *CachedBankAccountReader) SetLogger(logger glog.Logger) {
	if s == nil {
		return
	}
	if logger == nil {
		logger = glog.Nop()
	}
	s.logger = logger
}

// BankAccountCacheKey is banklink::bank_account::v1::<kind>::<value> with the
// value URL-path escaped.
func BankAccountCacheKey(kind string, value string) string {
	return strings.Join([]string{
		bankAccountCacheKeyPrefix,
		url.PathEscape(strings.TrimSpace(kind)),
		url.PathEscape(strings.TrimSpace(value)),
	}, "::")
}

func (s *CachedBankAccountReader) Create(ctx context.Context, record core.BankAccountRecord) (core.StoredBankAccount, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StoredBankAccount{}, fmt.Errorf("sqlstore: cached bank account reader is not configured")
	}
	stored, err := s.base.Create(ctx, record)
	if err != nil {
		return core.StoredBankAccount{}, err
	}
	for _, key := range []string{
		BankAccountCacheKey("user", stored.UserID),
		BankAccountCacheKey("sharable", stored.SharableID),
	} {
		// The row is committed; a stale key only lives until its TTL.
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("bank account cache invalidation failed",
				"cache_key", key,
				"record_id", stored.ID,
				"error", err.Error(),
			)
		}
	}
	return stored, nil
}

func (s *CachedBankAccountReader) ListByUser(ctx context.Context, userID string) ([]core.StoredBankAccount, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached bank account reader is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, core.ErrUserIDRequired
	}
	records, err := repositorycache.GetOrFetch(ctx, s.cache, BankAccountCacheKey("user", userID), func(ctx context.Context) ([]core.StoredBankAccount, error) {
		records, err := s.base.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		out := make([]core.StoredBankAccount, 0, len(records))
		for _, record := range records {
			out = append(out, record.WithoutAccessToken())
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]core.StoredBankAccount(nil), records...), nil
}

func (s *CachedBankAccountReader) GetBySharableID(ctx context.Context, sharableID string) (core.StoredBankAccount, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StoredBankAccount{}, fmt.Errorf("sqlstore: cached bank account reader is not configured")
	}
	sharableID = strings.TrimSpace(sharableID)
	if sharableID == "" {
		return core.StoredBankAccount{}, core.ErrMalformedSharableID
	}
	return repositorycache.GetOrFetch(ctx, s.cache, BankAccountCacheKey("sharable", sharableID), func(ctx context.Context) (core.StoredBankAccount, error) {
		record, err := s.base.GetBySharableID(ctx, sharableID)
		if err != nil {
			return core.StoredBankAccount{}, err
		}
		return record.WithoutAccessToken(), nil
	})
}
