package hook

import (
	"context"
	"errors"
	"fmt"
	"os"

	"namesilo-dns01/challenge"
	"namesilo-dns01/propagation"
	"namesilo-dns01/utils"
)

// Waiter blocks until a TXT value is served or gives up.
type Waiter interface {
	WaitForValue(ctx context.Context, fqdn, value string) (bool, error)
}

// Hook runs the two halves of a DNS-01 challenge: Auth publishes the record,
// Cleanup removes what Auth published.
type Hook struct {
	Registrar challenge.Registrar
	Waiter    Waiter
	CacheDir  string
	TTL       int
}

// Result describes a finished auth run.
type Result struct {
	Domain     challenge.Domain
	RecordID   string
	Propagated bool
}

// Publish creates or reuses the challenge record and stores its id in the
// ledger, without waiting for propagation.
func (h *Hook) Publish(ctx context.Context, certDomain, validation string) (Result, error) {
	d, err := challenge.Split(certDomain)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(h.CacheDir, 0o700); err != nil {
		return Result{}, fmt.Errorf("create cache directory: %w", err)
	}

	ttl := h.TTL
	if ttl == 0 {
		ttl = challenge.DefaultTTL
	}

	reconciler := &challenge.Reconciler{Registrar: h.Registrar}
	id, err := reconciler.Ensure(ctx, d, d.RecordSpec(validation, ttl))
	if err != nil {
		return Result{}, err
	}

	ledger := challenge.NewLedger(h.CacheDir, d)
	if err := ledger.Append(id); err != nil {
		return Result{}, err
	}
	utils.Logger.Info().Str("record_id", id).Str("ledger", ledger.Path).Str("value", validation).Msg("Recorded TXT record for cleanup")

	return Result{Domain: d, RecordID: id}, nil
}

// Auth publishes the record then waits for it on the authoritative servers.
// Not seeing the record before the deadline is logged, not returned: the CA
// may still validate on its own schedule.
func (h *Hook) Auth(ctx context.Context, certDomain, validation string) (Result, error) {
	res, err := h.Publish(ctx, certDomain, validation)
	if err != nil {
		return res, err
	}

	fqdn := res.Domain.ChallengeFQDN()
	utils.Logger.Info().Str("fqdn", fqdn).Msg("Waiting for the DNS record to be served")

	found, err := h.Waiter.WaitForValue(ctx, fqdn, validation)
	if err != nil {
		return res, err
	}
	res.Propagated = found

	if found {
		utils.Logger.Info().Str("fqdn", fqdn).Str("value", validation).Msg("Found DNS record")
	} else {
		utils.Logger.Warn().Str("fqdn", fqdn).Msg("Timed out waiting for the DNS record, continuing anyway")
	}
	return res, nil
}

// Cleanup deletes every record listed in the domain's ledger. The ledger is
// kept and ids already gone count as deleted, so running cleanup once per
// challenge of a shared ledger succeeds every time.
func (h *Hook) Cleanup(ctx context.Context, certDomain string) error {
	d, err := challenge.Split(certDomain)
	if err != nil {
		return err
	}

	ledger := challenge.NewLedger(h.CacheDir, d)
	ids, err := ledger.ReadAll()
	if err != nil {
		return err
	}

	cleaner := &challenge.Cleaner{Registrar: h.Registrar}
	if err := cleaner.DeleteAll(ctx, d, ids); err != nil {
		return err
	}

	utils.Logger.Info().Str("domain", d.FQDN).Int("records", len(ids)).Msg("Cleaned up successfully")
	return nil
}

// LogProgress reports watcher progress through the logger.
func LogProgress(p propagation.Progress) {
	event := utils.Logger.Info()
	switch {
	case p.Found:
	case errors.Is(p.Err, propagation.ErrNoData):
		event = event.Str("status", "no data yet")
	case p.Err != nil:
		event = utils.Logger.Warn().Err(p.Err)
	default:
		event = event.Str("status", "value not served yet")
	}

	event.Int("attempt", p.Attempt).
		Dur("elapsed", p.Elapsed).
		Bool("found", p.Found).
		Msg("Checked authoritative nameservers")

	if !p.Found {
		utils.Logger.Info().Msgf("Waiting.. (recheck every %s)", p.Interval)
	}
}
