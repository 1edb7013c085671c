package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBankAccountStore is an append-only in-process store.
type MemoryBankAccountStore struct {
	mu      sync.Mutex
	records []StoredBankAccount
	Now     func() time.Time
}

func NewMemoryBankAccountStore() *MemoryBankAccountStore {
	return &MemoryBankAccountStore{
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryBankAccountStore) Create(_ context.Context, record BankAccountRecord) (StoredBankAccount, error) {
	if s == nil {
		return StoredBankAccount{}, fmt.Errorf("core: bank account store is not configured")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return StoredBankAccount{}, ErrUserIDRequired
	}
	if strings.TrimSpace(record.FundingSourceURL) == "" {
		return StoredBankAccount{}, ErrEmptyFundingSourceURL
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	stored := StoredBankAccount{
		ID:                uuid.NewString(),
		BankAccountRecord: record,
		CreatedAt:         now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, stored)
	return stored, nil
}

func (s *MemoryBankAccountStore) ListByUser(_ context.Context, userID string) ([]StoredBankAccount, error) {
	if s == nil {
		return nil, fmt.Errorf("core: bank account store is not configured")
	}
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredBankAccount, 0)
	for index := len(s.records) - 1; index >= 0; index-- {
		if s.records[index].UserID == userID {
			out = append(out, s.records[index].WithoutAccessToken())
		}
	}
	return out, nil
}

// GetBySharableID returns the newest record for sharableID.
func (s *MemoryBankAccountStore) GetBySharableID(_ context.Context, sharableID string) (StoredBankAccount, error) {
	if s == nil {
		return StoredBankAccount{}, fmt.Errorf("core: bank account store is not configured")
	}
	sharableID = strings.TrimSpace(sharableID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for index := len(s.records) - 1; index >= 0; index-- {
		if s.records[index].SharableID == sharableID {
			return s.records[index].WithoutAccessToken(), nil
		}
	}
	return StoredBankAccount{}, ErrBankAccountNotFound
}

// Records returns every stored row including access tokens.
func (s *MemoryBankAccountStore) Records() []StoredBankAccount {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoredBankAccount(nil), s.records...)
}
