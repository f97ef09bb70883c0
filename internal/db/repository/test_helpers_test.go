package repository

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flashgen/question-service/internal/question"
)

func uuidFromByte(b byte) pgtype.UUID {
	var arr [16]byte
	arr[0] = 0x10
	arr[15] = b
	return pgtype.UUID{Bytes: arr, Valid: true}
}

func idFromByte(b byte) question.ID {
	id, err := question.IDFromUUID(uuidFromByte(b).Bytes)
	if err != nil {
		panic(err)
	}
	return id
}
