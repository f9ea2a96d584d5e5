package consumer

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyRepositoryErrNil(t *testing.T) {
	require.NoError(t, ClassifyRepositoryErr(nil))
}

func TestClassifyRepositoryErrBadConn(t *testing.T) {
	err := ClassifyRepositoryErr(fmt.Errorf("query failed: %w", driver.ErrBadConn))
	require.ErrorIs(t, err, ErrRepositoryConnection)
}

func TestClassifyRepositoryErrNetOpError(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("timeout")}
	err := ClassifyRepositoryErr(fmt.Errorf("repository: %w", opErr))
	require.ErrorIs(t, err, ErrRepositoryConnection)
}

func TestClassifyRepositoryErrKnownSignatures(t *testing.T) {
	for _, msg := range []string{
		"the connection manager was closed",
		"failed to send the query packet to the server",
		"MySQL server has gone away",
		"dial tcp 10.0.0.1:5432: connection refused",
	} {
		err := ClassifyRepositoryErr(errors.New(msg))
		require.ErrorIs(t, err, ErrRepositoryConnection, msg)
	}
}

func TestClassifyRepositoryErrPassesOthersThrough(t *testing.T) {
	original := errors.New("constraint violation")
	err := ClassifyRepositoryErr(original)
	require.Same(t, original, err)
	require.NotErrorIs(t, err, ErrRepositoryConnection)
}

func TestClassifyRepositoryErrIdempotent(t *testing.T) {
	once := ClassifyRepositoryErr(driver.ErrBadConn)
	twice := ClassifyRepositoryErr(once)
	require.Same(t, once, twice)
}
