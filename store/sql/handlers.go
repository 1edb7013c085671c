package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func bankAccountHandlers() repository.ModelHandlers[*bankAccountRecord] {
	return repository.ModelHandlers[*bankAccountRecord]{
		NewRecord: func() *bankAccountRecord {
			return &bankAccountRecord{}
		},
		GetID: func(record *bankAccountRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *bankAccountRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "sharable_id"
		},
		GetIdentifierValue: func(record *bankAccountRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.SharableID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
