package domain

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any write.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// TxError reports an aborted record transaction. Nothing written inside the
// transaction was kept.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return e.Op + ": transaction aborted: " + e.Err.Error()
}

func (e *TxError) Unwrap() error { return e.Err }
