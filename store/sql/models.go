package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type bankAccountRecord struct {
	bun.BaseModel `bun:"table:bank_accounts,alias:ba"`

	ID                    string    `bun:"id,pk"`
	UserID                string    `bun:"user_id,notnull"`
	BankID                string    `bun:"bank_id,notnull"`
	AccountID             string    `bun:"account_id,notnull"`
	AccessTokenCiphertext []byte    `bun:"access_token_ciphertext,notnull"`
	EncryptionKeyID       string    `bun:"encryption_key_id,notnull"`
	EncryptionVersion     int       `bun:"encryption_version,notnull"`
	FundingSourceURL      string    `bun:"funding_source_url,notnull"`
	SharableID            string    `bun:"sharable_id,notnull"`
	CreatedAt             time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
