package db

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsConnectivityErr reports whether err is a transport-level failure
// (unreachable host, dropped connection, timeout) as opposed to a data
// or query error. Connectivity failures map to the API-error sentinel
// at call sites; everything else is a data-shape problem.
func IsConnectivityErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 - connection exception, 57P01 - admin shutdown.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	if pgconn.Timeout(err) {
		return true
	}
	return false
}
