package core

import (
	"context"
	"fmt"
	"strings"
)

func (s *Service) ListLinkedAccounts(ctx context.Context, userID string) (views []LinkedAccountView, err error) {
	startedAt := s.now()
	userID = strings.TrimSpace(userID)
	fields := map[string]any{"user_id": userID}
	defer func() {
		s.observeOperation(ctx, startedAt, "list_linked_accounts", err, fields)
	}()

	if s == nil || s.bankAccountReader == nil {
		err = s.mapError(fmt.Errorf("%w: bank account reader", ErrServiceNotConfigured))
		return nil, err
	}
	if userID == "" {
		err = s.mapError(ErrUserIDRequired)
		return nil, err
	}
	records, err := s.bankAccountReader.ListByUser(ctx, userID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	views = make([]LinkedAccountView, 0, len(records))
	for _, record := range records {
		views = append(views, record.View())
	}
	fields["count"] = len(views)
	return views, nil
}

func (s *Service) GetLinkedAccount(ctx context.Context, sharableID string) (view LinkedAccountView, err error) {
	startedAt := s.now()
	sharableID = strings.TrimSpace(sharableID)
	fields := map[string]any{"sharable_id": sharableID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_linked_account", err, fields)
	}()

	if s == nil || s.bankAccountReader == nil {
		err = s.mapError(fmt.Errorf("%w: bank account reader", ErrServiceNotConfigured))
		return LinkedAccountView{}, err
	}
	if s.identifierCodec != nil {
		if _, decodeErr := s.identifierCodec.Decode(sharableID); decodeErr != nil {
			err = s.mapError(decodeErr)
			return LinkedAccountView{}, err
		}
	} else if sharableID == "" {
		err = s.mapError(ErrMalformedSharableID)
		return LinkedAccountView{}, err
	}
	record, err := s.bankAccountReader.GetBySharableID(ctx, sharableID)
	if err != nil {
		err = s.mapError(err)
		return LinkedAccountView{}, err
	}
	fields["user_id"] = record.UserID
	return record.View(), nil
}
