package store

import (
	"errors"
	"fmt"

	"github.com/alphabot-ai/newsboard/internal/apperr"
)

// SQLSTATE codes understood by the HTTP error mapper. The postgres driver
// passes them through; the sqlite driver translates its constraint failures
// onto the same codes.
const (
	CodeNumericValueOutOfRange    = "22003"
	CodeInvalidTextRepresentation = "22P02"
	CodeNotNullViolation          = "23502"
	CodeForeignKeyViolation       = "23503"
	CodeUniqueViolation           = "23505"
)

// Not-found messages returned to clients.
const (
	MsgArticleNotFound       = "Article not found"
	MsgUserNotFound          = "User not found"
	MsgNotFound              = "not found"
	MsgArticleDeleteNotFound = "article not found"
	MsgCommentDeleteNotFound = "comment not found"
)

// DBError is a database failure classified by SQLSTATE code.
type DBError struct {
	Code string
	Err  error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("database error %s: %v", e.Code, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}

// CodeOf returns the SQLSTATE code carried by err, or "" if err is not a
// classified database error.
func CodeOf(err error) string {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Code
	}
	return ""
}

// Allow-list rejections returned by OrderClause.
var (
	ErrBadSortBy = apperr.BadRequest("bad request in sort by query")
	ErrBadOrder  = apperr.BadRequest("bad request in order query")
)
