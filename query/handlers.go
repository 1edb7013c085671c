package query

import (
	"context"

	"github.com/goliatone/go-banklink/core"
)

type ListLinkedAccountsQuery struct {
	reader core.LinkedAccountQueries
}

func NewListLinkedAccountsQuery(reader core.LinkedAccountQueries) *ListLinkedAccountsQuery {
	return &ListLinkedAccountsQuery{reader: reader}
}

func (q *ListLinkedAccountsQuery) Query(
	ctx context.Context,
	msg ListLinkedAccountsMessage,
) ([]core.LinkedAccountView, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: linked account reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.ListLinkedAccounts(ctx, msg.UserID)
}

type GetLinkedAccountQuery struct {
	reader core.LinkedAccountQueries
}

func NewGetLinkedAccountQuery(reader core.LinkedAccountQueries) *GetLinkedAccountQuery {
	return &GetLinkedAccountQuery{reader: reader}
}

func (q *GetLinkedAccountQuery) Query(ctx context.Context, msg GetLinkedAccountMessage) (core.LinkedAccountView, error) {
	if q == nil || q.reader == nil {
		return core.LinkedAccountView{}, queryDependencyError("query: linked account reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.LinkedAccountView{}, err
	}
	return q.reader.GetLinkedAccount(ctx, msg.SharableID)
}
