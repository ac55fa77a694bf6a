package db

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxBusyRetries  = 5
	initialBusyWait = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a transient SQLITE_BUSY condition.
// The modernc driver surfaces these as formatted strings rather than a
// typed error, so match on the message.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with exponential backoff while it keeps
// returning SQLITE_BUSY. Writes can still hit BUSY despite the WAL
// journal and busy_timeout when a checkpoint holds the lock past the
// timeout window. Non-busy errors are returned immediately.
func retryOnBusy(fn func() error) error {
	wait := initialBusyWait
	var err error
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries-1 {
			time.Sleep(wait)
			wait *= 2
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxBusyRetries, err)
}
