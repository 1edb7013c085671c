package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ LinkingService       = (*Service)(nil)
	_ LinkedAccountQueries = (*Service)(nil)
	_ BankAccountStore     = (*MemoryBankAccountStore)(nil)
	_ BankAccountReader    = (*MemoryBankAccountStore)(nil)
	_ PublicTokenLedger    = (*MemoryPublicTokenLedger)(nil)
	_ error                = (*LinkError)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
