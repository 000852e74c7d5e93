package challenge

import "errors"

var (
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrInvalidTTL        = errors.New("ttl out of range")
	ErrInvalidRecord     = errors.New("invalid challenge record")
	ErrNoUpdatableRecord = errors.New("no updatable TXT record")
	ErrNoLedgerFound     = errors.New("no ledger found")
)
