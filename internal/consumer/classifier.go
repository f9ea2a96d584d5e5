package consumer

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrRepositoryConnection marks a repository-connectivity fault. The transport
// keeps redelivering the message instead of skipping it.
var ErrRepositoryConnection = errors.New("repository_connection")

// repositoryConnFragments are driver messages that indicate a lost or broken
// connection rather than a bad query.
var repositoryConnFragments = []string{
	"connection manager was closed",
	"failed to send the query packet",
	"server has gone away",
	"connection refused",
	"connection reset by peer",
	"broken pipe",
}

// ClassifyRepositoryErr wraps repository-connectivity faults in
// ErrRepositoryConnection and leaves every other error untouched.
func ClassifyRepositoryErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRepositoryConnection) {
		return err
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", ErrRepositoryConnection, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrRepositoryConnection, err)
	}

	msg := err.Error()
	for _, fragment := range repositoryConnFragments {
		if strings.Contains(msg, fragment) {
			return fmt.Errorf("%w: %v", ErrRepositoryConnection, err)
		}
	}

	return err
}
