package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-banklink/core"
	glog "github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the bank account store and its cached reader
// from a persistence client or a bun db.
type RepositoryFactory struct {
	db      *bun.DB
	secrets core.SecretProvider
	cache   repositorycache.CacheService

	bankAccountStore *BankAccountStore
	cachedReader     *CachedBankAccountReader
}

func NewRepositoryFactory(secrets core.SecretProvider, cacheService repositorycache.CacheService) *RepositoryFactory {
	return &RepositoryFactory{secrets: secrets, cache: cacheService}
}

func NewRepositoryFactoryFromPersistence(
	client *persistence.Client,
	secrets core.SecretProvider,
	cacheService repositorycache.CacheService,
) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(secrets, cacheService)
	if err := factory.Build(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) Build(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.bankAccountStore != nil {
		return nil
	}
	store, err := NewBankAccountStore(f.db, f.secrets)
	if err != nil {
		return err
	}
	f.bankAccountStore = store
	if f.cache != nil {
		reader, err := NewCachedBankAccountReader(store, f.cache)
		if err != nil {
			return err
		}
		f.cachedReader = reader
	}
	return nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) BankAccountStore() core.BankAccountStore {
	if f == nil {
		return nil
	}
	if f.cachedReader != nil {
		return f.cachedReader
	}
	return f.bankAccountStore
}

// SetLogger routes cache invalidation warnings to logger. Call it after Build.
func (f *RepositoryFactory) SetLogger(logger glog.Logger) {
	if f == nil || f.cachedReader == nil {
		return
	}
	f.cachedReader.SetLogger(logger)
}

// BankAccountReader prefers the cached reader when a cache service was given.
func (f *RepositoryFactory) BankAccountReader() core.BankAccountReader {
	if f == nil {
		return nil
	}
	if f.cachedReader != nil {
		return f.cachedReader
	}
	return f.bankAccountStore
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
