package sqlstore

import "github.com/goliatone/go-banklink/core"

var (
	_ core.BankAccountStore  = (*BankAccountStore)(nil)
	_ core.BankAccountReader = (*BankAccountStore)(nil)
	_ core.BankAccountStore  = (*CachedBankAccountReader)(nil)
	_ core.BankAccountReader = (*CachedBankAccountReader)(nil)
)
