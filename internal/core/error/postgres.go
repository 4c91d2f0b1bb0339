package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

const (
	PostgresErrorMessage    = "postgres operation failed"
	PostgresNotFoundMessage = "postgres row not found"
)

// WrapPostgres maps pgx errors to AppError.
func WrapPostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, PostgresNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, PostgresErrorMessage)
}
