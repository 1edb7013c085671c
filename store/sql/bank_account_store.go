package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-banklink/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BankAccountStore appends linked bank accounts. Access tokens are sealed
// through the configured secret provider before they reach the table.
type BankAccountStore struct {
	db      *bun.DB
	repo    repository.Repository[*bankAccountRecord]
	secrets core.SecretProvider
	now     func() time.Time
}

type keyMetadata interface {
	KeyID() string
	Version() int
}

func NewBankAccountStore(db *bun.DB, secrets core.SecretProvider) (*BankAccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("sqlstore: secret provider is required")
	}
	repo := repository.NewRepository[*bankAccountRecord](db, bankAccountHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid bank account repository wiring: %w", err)
		}
	}
	return &BankAccountStore{
		db:      db,
		repo:    repo,
		secrets: secrets,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Create inserts a new row for every call; linking the same account twice
// yields two rows.
func (s *BankAccountStore) Create(ctx context.Context, record core.BankAccountRecord) (core.StoredBankAccount, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.StoredBankAccount{}, fmt.Errorf("sqlstore: bank account store is not configured")
	}
	row, err := s.newRecord(ctx, record)
	if err != nil {
		return core.StoredBankAccount{}, err
	}

	var created *bankAccountRecord
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		inserted, createErr := s.repo.CreateTx(ctx, tx, row)
		if createErr != nil {
			return createErr
		}
		created = inserted
		return nil
	})
	if err != nil {
		return core.StoredBankAccount{}, fmt.Errorf("sqlstore: insert bank account: %w", err)
	}
	if created == nil {
		created = row
	}
	return toStored(created, record.AccessToken), nil
}

func (s *BankAccountStore) ListByUser(ctx context.Context, userID string) ([]core.StoredBankAccount, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: bank account store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, core.ErrUserIDRequired
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("user_id", "=", userID),
		repository.OrderBy("created_at DESC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.StoredBankAccount, 0, len(records))
	for _, record := range records {
		out = append(out, toStored(record, ""))
	}
	return out, nil
}

// GetBySharableID returns the newest row for the sharable id.
func (s *BankAccountStore) GetBySharableID(ctx context.Context, sharableID string) (core.StoredBankAccount, error) {
	if s == nil || s.repo == nil {
		return core.StoredBankAccount{}, fmt.Errorf("sqlstore: bank account store is not configured")
	}
	sharableID = strings.TrimSpace(sharableID)
	if sharableID == "" {
		return core.StoredBankAccount{}, core.ErrMalformedSharableID
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("sharable_id", "=", sharableID),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.StoredBankAccount{}, err
	}
	if len(records) == 0 {
		return core.StoredBankAccount{}, fmt.Errorf("%w: %s", core.ErrBankAccountNotFound, sharableID)
	}
	return toStored(records[0], ""), nil
}

func (s *BankAccountStore) newRecord(ctx context.Context, record core.BankAccountRecord) (*bankAccountRecord, error) {
	record.UserID = strings.TrimSpace(record.UserID)
	record.FundingSourceURL = strings.TrimSpace(record.FundingSourceURL)
	switch {
	case record.UserID == "":
		return nil, core.ErrUserIDRequired
	case record.FundingSourceURL == "":
		return nil, core.ErrEmptyFundingSourceURL
	case record.AccessToken.IsZero():
		return nil, errors.New("sqlstore: access token is required")
	}

	sealed, err := s.secrets.Encrypt(ctx, []byte(record.AccessToken.Reveal()))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: seal access token: %w", err)
	}
	keyID, version := "", 0
	if meta, ok := s.secrets.(keyMetadata); ok {
		keyID, version = meta.KeyID(), meta.Version()
	}
	return &bankAccountRecord{
		ID:                    uuid.NewString(),
		UserID:                record.UserID,
		BankID:                strings.TrimSpace(record.BankID),
		AccountID:             strings.TrimSpace(record.AccountID),
		AccessTokenCiphertext: sealed,
		EncryptionKeyID:       keyID,
		EncryptionVersion:     version,
		FundingSourceURL:      record.FundingSourceURL,
		SharableID:            strings.TrimSpace(record.SharableID),
		CreatedAt:             s.now(),
	}, nil
}

func toStored(record *bankAccountRecord, accessToken core.Secret) core.StoredBankAccount {
	return core.StoredBankAccount{
		ID: record.ID,
		BankAccountRecord: core.BankAccountRecord{
			UserID:           record.UserID,
			BankID:           record.BankID,
			AccountID:        record.AccountID,
			AccessToken:      accessToken,
			FundingSourceURL: record.FundingSourceURL,
			SharableID:       record.SharableID,
		},
		CreatedAt: record.CreatedAt.UTC(),
	}
}
