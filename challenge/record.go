package challenge

import (
	"fmt"

	"namesilo-dns01/namesilo"
)

// TTL bounds accepted by the registrar.
const (
	MinTTL     = 3600
	MaxTTL     = 2592000
	DefaultTTL = MinTTL
)

// RecordSpec describes the TXT record a challenge needs.
type RecordSpec struct {
	Host  string // relative to the registrable domain
	Value string
	TTL   int
}

func (d Domain) RecordSpec(value string, ttl int) RecordSpec {
	return RecordSpec{Host: d.ChallengeHost(), Value: value, TTL: ttl}
}

func (s RecordSpec) Validate() error {
	if s.Host == "" || s.Value == "" {
		return fmt.Errorf("%w: host and value are required", ErrInvalidRecord)
	}
	if s.TTL < MinTTL || s.TTL > MaxTTL {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidTTL, s.TTL, MinTTL, MaxTTL)
	}
	return nil
}

func (s RecordSpec) params() namesilo.RecordParams {
	return namesilo.RecordParams{
		Type:  namesilo.TypeTXT,
		Host:  s.Host,
		Value: s.Value,
		TTL:   s.TTL,
	}
}
