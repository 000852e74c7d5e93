package certs

import (
	"context"
	"errors"
	"time"

	"github.com/go-acme/lego/v4/challenge/dns01"

	"namesilo-dns01/challenge"
	"namesilo-dns01/hook"
	"namesilo-dns01/propagation"
)

// Provider lets lego solve DNS-01 challenges through the same record and
// ledger handling the certbot hook uses.
type Provider struct {
	ctx     context.Context
	hook    *hook.Hook
	watcher *propagation.Watcher
}

func NewProvider(ctx context.Context, h *hook.Hook, w *propagation.Watcher) *Provider {
	return &Provider{ctx: ctx, hook: h, watcher: w}
}

// Present publishes the record without waiting; lego polls through PreCheck.
func (p *Provider) Present(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	_, err := p.hook.Publish(p.ctx, domain, info.Value)
	return err
}

// CleanUp removes every record published for domain. A missing ledger means
// nothing was published.
func (p *Provider) CleanUp(domain, token, keyAuth string) error {
	err := p.hook.Cleanup(p.ctx, domain)
	if errors.Is(err, challenge.ErrNoLedgerFound) {
		return nil
	}
	return err
}

func (p *Provider) Timeout() (timeout, interval time.Duration) {
	return p.watcher.Timeout, p.watcher.Interval
}

// PreCheck replaces lego's recursive-resolver check with a query to the
// registrar's authoritative servers.
func (p *Provider) PreCheck() dns01.ChallengeOption {
	return dns01.WrapPreCheck(func(domain, fqdn, value string, _ dns01.PreCheckFunc) (bool, error) {
		found, err := p.watcher.Check(p.ctx, fqdn, value)
		if errors.Is(err, propagation.ErrNoData) {
			return false, nil
		}
		return found, err
	})
}
