package devkit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-banklink/core"
)

func ValidateTransportAdapterConformance(
	ctx context.Context,
	adapter core.TransportAdapter,
	request core.TransportRequest,
) error {
	if adapter == nil {
		return fmt.Errorf("devkit: transport adapter is required")
	}
	if strings.TrimSpace(adapter.Kind()) == "" {
		return fmt.Errorf("devkit: transport adapter kind is required")
	}
	_, err := adapter.Do(ctx, request)
	return err
}

func ValidatePublicTokenLedgerConformance(
	ctx context.Context,
	ledger core.PublicTokenLedger,
	publicToken core.Secret,
) error {
	if ledger == nil {
		return fmt.Errorf("devkit: public token ledger is required")
	}
	key := core.PublicTokenKey(publicToken)
	claimed, err := ledger.Claim(ctx, key, time.Minute)
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("devkit: first claim should be accepted")
	}
	claimed, err = ledger.Claim(ctx, key, time.Minute)
	if err != nil {
		return err
	}
	if claimed {
		return fmt.Errorf("devkit: second claim should not be accepted inside the window")
	}
	return nil
}

// ValidateBankAccountStoreConformance appends two records for the same
// account and checks both are kept and readable newest first without their
// access tokens.
func ValidateBankAccountStoreConformance(
	ctx context.Context,
	store core.BankAccountStore,
	reader core.BankAccountReader,
	record core.BankAccountRecord,
) error {
	if store == nil || reader == nil {
		return fmt.Errorf("devkit: bank account store and reader are required")
	}
	first, err := store.Create(ctx, record)
	if err != nil {
		return err
	}
	second, err := store.Create(ctx, record)
	if err != nil {
		return err
	}
	if first.ID == "" || first.ID == second.ID {
		return fmt.Errorf("devkit: each append should receive a distinct id")
	}
	listed, err := reader.ListByUser(ctx, record.UserID)
	if err != nil {
		return err
	}
	if len(listed) < 2 {
		return fmt.Errorf("devkit: expected duplicate appends to be kept, got %d records", len(listed))
	}
	for _, stored := range listed {
		if !stored.AccessToken.IsZero() {
			return fmt.Errorf("devkit: listed record %s exposed its access token", stored.ID)
		}
	}
	resolved, err := reader.GetBySharableID(ctx, record.SharableID)
	if err != nil {
		return err
	}
	if resolved.AccountID != record.AccountID {
		return fmt.Errorf("devkit: sharable id resolved to account %q", resolved.AccountID)
	}
	if !resolved.AccessToken.IsZero() {
		return fmt.Errorf("devkit: resolved record exposed its access token")
	}
	return nil
}
