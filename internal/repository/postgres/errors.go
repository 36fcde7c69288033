package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"happymemories/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
	codeAdminShutdown       = "57P01"
	codeCannotConnectNow    = "57P03"
	codeTooManyConnections  = "53300"
	classConnectionFailure  = "08"
)

// classify maps driver errors onto domain error kinds, keeping the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeUniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case pqErr.Code == codeForeignKeyViolation, pqErr.Code == codeInvalidTextRepr:
			// A missing parent row or a malformed uuid both mean the referenced record does not exist.
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		case pqErr.Code.Class() == classConnectionFailure,
			pqErr.Code == codeAdminShutdown,
			pqErr.Code == codeCannotConnectNow,
			pqErr.Code == codeTooManyConnections:
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return err
}
