package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// linkState is threaded by value through the workflow. Each step returns the
// next state; nothing is shared between concurrent LinkAccount calls.
type linkState struct {
	stage            LinkStage
	skipped          bool
	user             UserIdentity
	publicToken      Secret
	customerID       string
	exchange         ExchangeResult
	account          AccountSummary
	processorToken   Secret
	fundingSourceURL string
	record           StoredBankAccount
}

func (st linkState) secrets() []Secret {
	return []Secret{st.publicToken, st.exchange.AccessToken, st.processorToken, st.user.SSN}
}

type linkStep struct {
	target LinkStage
	run    func(ctx context.Context, state linkState) (linkState, *LinkError)
}

func (s *Service) linkSteps() []linkStep {
	return []linkStep{
		{target: LinkStageCustomerProvisioned, run: s.provisionCustomer},
		{target: LinkStageTokenExchanged, run: s.exchangePublicToken},
		{target: LinkStageAccountSelected, run: s.selectAccount},
		{target: LinkStageProcessorTokenIssued, run: s.issueProcessorToken},
		{target: LinkStageFundingSourceCreated, run: s.createFundingSource},
		{target: LinkStageRecordPersisted, run: s.persistBankAccount},
	}
}

// LinkAccount runs the account-linking workflow for user. Steps run strictly
// in order; the first failure ends the run with a *LinkError and nothing
// already created upstream is rolled back.
func (s *Service) LinkAccount(ctx context.Context, user UserIdentity, publicToken string) (completion LinkCompletion, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"user_id": strings.TrimSpace(user.ID),
	}
	if s != nil {
		fields["processor"] = s.config.Processor
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "link_account", err, fields)
	}()

	if depErr := s.requireLinkDependencies(); depErr != nil {
		err = s.mapError(depErr)
		return LinkCompletion{}, err
	}

	state := linkState{
		stage:       LinkStageStart,
		user:        user,
		publicToken: Secret(strings.TrimSpace(publicToken)),
	}
	session := LinkSession{User: state.user, PublicToken: state.publicToken}
	if validateErr := session.Validate(); validateErr != nil {
		linkErr := newLinkError(LinkErrorBadInput, LinkStageStart, validateErr, state.secrets()...)
		s.failLink(ctx, state, linkErr)
		err = linkErr
		return LinkCompletion{}, err
	}

	for _, step := range s.linkSteps() {
		next, linkErr := step.run(ctx, state)
		if linkErr != nil {
			s.failLink(ctx, state, linkErr)
			err = linkErr
			return LinkCompletion{}, err
		}
		next.stage = step.target
		s.notifyTransition(ctx, LinkTransition{
			UserID:  state.user.ID,
			From:    state.stage,
			To:      next.stage,
			Skipped: next.skipped,
			At:      s.now(),
		})
		next.skipped = false
		state = next
	}

	fields["bank_id"] = state.exchange.ItemID
	fields["account_id"] = state.account.AccountID
	fields["sharable_id"] = state.record.SharableID
	fields["record_id"] = state.record.ID
	return LinkCompletion{Status: LinkStatusComplete}, nil
}

func (s *Service) provisionCustomer(ctx context.Context, state linkState) (linkState, *LinkError) {
	if state.user.HasPaymentCustomer() {
		state.customerID = strings.TrimSpace(state.user.PaymentCustomerID)
		state.skipped = true
		return state, nil
	}

	customerURL, err := s.paymentProcessor.CreateCustomer(ctx, state.user.CustomerProfile(s.config.CustomerType))
	if err != nil {
		return state, newLinkError(LinkErrorCustomerProvisioningFailed, LinkStageCustomerProvisioned, err, state.secrets()...)
	}
	customerID, err := s.identifierCodec.ExtractCustomerID(customerURL)
	if err != nil {
		return state, newLinkError(LinkErrorCustomerProvisioningFailed, LinkStageCustomerProvisioned, err, state.secrets()...)
	}
	state.user = state.user.WithPaymentCustomer(customerID, customerURL)
	state.customerID = state.user.PaymentCustomerID
	return state, nil
}

func (s *Service) exchangePublicToken(ctx context.Context, state linkState) (linkState, *LinkError) {
	claimed, err := s.publicTokenLedger.Claim(ctx, PublicTokenKey(state.publicToken), s.config.PublicTokenTTL)
	if err != nil {
		return state, newLinkError(LinkErrorTokenExchangeFailed, LinkStageTokenExchanged, err, state.secrets()...)
	}
	if !claimed {
		return state, newLinkError(LinkErrorTokenExchangeFailed, LinkStageTokenExchanged, ErrPublicTokenConsumed)
	}

	result, err := s.aggregator.ExchangePublicToken(ctx, state.publicToken)
	if err != nil {
		return state, newLinkError(LinkErrorTokenExchangeFailed, LinkStageTokenExchanged, err, state.secrets()...)
	}
	result.ItemID = strings.TrimSpace(result.ItemID)
	if result.AccessToken.IsZero() || result.ItemID == "" {
		return state, newLinkError(
			LinkErrorTokenExchangeFailed,
			LinkStageTokenExchanged,
			fmt.Errorf("core: exchange returned an incomplete item"),
		)
	}
	state.exchange = result
	return state, nil
}

func (s *Service) selectAccount(ctx context.Context, state linkState) (linkState, *LinkError) {
	accounts, err := s.aggregator.ListAccounts(ctx, state.exchange.AccessToken)
	if err != nil {
		return state, newLinkError(LinkErrorAccountListingFailed, LinkStageAccountSelected, err, state.secrets()...)
	}
	account, ok := SelectFirstAccount(accounts)
	if !ok {
		return state, newLinkError(LinkErrorNoAccountsReturned, LinkStageAccountSelected, nil)
	}
	account.AccountID = strings.TrimSpace(account.AccountID)
	if account.AccountID == "" {
		return state, newLinkError(
			LinkErrorAccountListingFailed,
			LinkStageAccountSelected,
			fmt.Errorf("core: selected account has no id"),
		)
	}
	state.account = account
	return state, nil
}

func (s *Service) issueProcessorToken(ctx context.Context, state linkState) (linkState, *LinkError) {
	token, err := s.aggregator.CreateProcessorToken(ctx, state.exchange.AccessToken, state.account.AccountID)
	if err != nil {
		return state, newLinkError(LinkErrorProcessorTokenFailed, LinkStageProcessorTokenIssued, err, append(state.secrets(), token)...)
	}
	if token.IsZero() {
		return state, newLinkError(
			LinkErrorProcessorTokenFailed,
			LinkStageProcessorTokenIssued,
			fmt.Errorf("core: aggregator returned an empty processor token"),
		)
	}
	state.processorToken = token
	return state, nil
}

func (s *Service) createFundingSource(ctx context.Context, state linkState) (linkState, *LinkError) {
	fundingSourceURL, err := s.paymentProcessor.CreateFundingSource(ctx, CreateFundingSourceInput{
		CustomerID:     state.customerID,
		ProcessorToken: state.processorToken,
		BankName:       state.account.Name,
	})
	if err != nil {
		return state, newLinkError(LinkErrorFundingSourceCreation, LinkStageFundingSourceCreated, err, state.secrets()...)
	}
	fundingSourceURL = strings.TrimSpace(fundingSourceURL)
	if fundingSourceURL == "" {
		return state, newLinkError(LinkErrorFundingSourceCreation, LinkStageFundingSourceCreated, ErrEmptyFundingSourceURL)
	}
	state.fundingSourceURL = fundingSourceURL
	return state, nil
}

func (s *Service) persistBankAccount(ctx context.Context, state linkState) (linkState, *LinkError) {
	record := BankAccountRecord{
		UserID:           strings.TrimSpace(state.user.ID),
		BankID:           state.exchange.ItemID,
		AccountID:        state.account.AccountID,
		AccessToken:      state.exchange.AccessToken,
		FundingSourceURL: state.fundingSourceURL,
		SharableID:       s.identifierCodec.Encode(state.account.AccountID),
	}
	stored, err := s.bankAccountStore.Create(ctx, record)
	if err != nil {
		return state, newLinkError(LinkErrorPersistence, LinkStageRecordPersisted, err, state.secrets()...)
	}
	state.record = stored
	return state, nil
}

func (s *Service) failLink(ctx context.Context, state linkState, linkErr *LinkError) {
	if linkErr == nil {
		return
	}
	s.notifyTransition(ctx, LinkTransition{
		UserID:     state.user.ID,
		From:       state.stage,
		To:         LinkStageFailed,
		FailedKind: linkErr.Kind,
		At:         s.now(),
	})
	s.recordCounter(ctx, MetricLinkAccountStageFailure, 1, map[string]string{
		"stage":      string(linkErr.Stage),
		"error_kind": string(linkErr.Kind),
	})
}

func (s *Service) notifyTransition(ctx context.Context, transition LinkTransition) {
	if s == nil {
		return
	}
	if transition.At.IsZero() {
		transition.At = time.Now().UTC()
	}
	for _, observer := range s.linkObservers {
		if observer == nil {
			continue
		}
		observer.OnTransition(ctx, transition)
	}
}
