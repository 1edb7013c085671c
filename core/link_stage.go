package core

import (
	"context"
	"time"
)

type LinkStage string

const (
	LinkStageStart                LinkStage = "start"
	LinkStageCustomerProvisioned  LinkStage = "customer_provisioned"
	LinkStageTokenExchanged       LinkStage = "token_exchanged"
	LinkStageAccountSelected      LinkStage = "account_selected"
	LinkStageProcessorTokenIssued LinkStage = "processor_token_issued"
	LinkStageFundingSourceCreated LinkStage = "funding_source_created"
	LinkStageRecordPersisted      LinkStage = "record_persisted"
	LinkStageFailed               LinkStage = "failed"
)

// LinkStages lists the success path in order.
var LinkStages = []LinkStage{
	LinkStageCustomerProvisioned,
	LinkStageTokenExchanged,
	LinkStageAccountSelected,
	LinkStageProcessorTokenIssued,
	LinkStageFundingSourceCreated,
	LinkStageRecordPersisted,
}

func (s LinkStage) Terminal() bool {
	return s == LinkStageRecordPersisted || s == LinkStageFailed
}

// Next reports the stage that follows s on the success path.
func (s LinkStage) Next() (LinkStage, bool) {
	if s == LinkStageStart {
		return LinkStages[0], true
	}
	for index, stage := range LinkStages {
		if stage == s && index+1 < len(LinkStages) {
			return LinkStages[index+1], true
		}
	}
	return "", false
}

type LinkTransition struct {
	UserID     string
	From       LinkStage
	To         LinkStage
	Skipped    bool
	FailedKind LinkErrorKind
	At         time.Time
}

type LinkObserver interface {
	OnTransition(ctx context.Context, transition LinkTransition)
}

type LinkObserverFunc func(ctx context.Context, transition LinkTransition)

func (f LinkObserverFunc) OnTransition(ctx context.Context, transition LinkTransition) {
	if f == nil {
		return
	}
	f(ctx, transition)
}
