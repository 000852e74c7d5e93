package certs

import (
	"context"
	"testing"
	"time"

	"github.com/go-acme/lego/v4/challenge/dns01"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namesilo-dns01/hook"
	"namesilo-dns01/namesilo/namesilotest"
	"namesilo-dns01/propagation"
)

func newTestProvider(t *testing.T) (*Provider, *namesilotest.Registrar) {
	t.Helper()
	t.Setenv("LEGO_DISABLE_CNAME_SUPPORT", "true")
	registrar := namesilotest.NewRegistrar()
	watcher := propagation.New(nil)
	h := &hook.Hook{Registrar: registrar, Waiter: watcher, CacheDir: t.TempDir()}
	return NewProvider(context.Background(), h, watcher), registrar
}

func TestProviderPresentAndCleanUp(t *testing.T) {
	p, registrar := newTestProvider(t)
	info := dns01.GetChallengeInfo("sub.example.com", "key-auth")

	require.NoError(t, p.Present("sub.example.com", "token", "key-auth"))
	records := registrar.Records("example.com")
	require.Len(t, records, 1)
	assert.Equal(t, "_acme-challenge.sub.example.com", records[0].Host)
	assert.Equal(t, info.Value, records[0].Value)

	require.NoError(t, p.CleanUp("sub.example.com", "token", "key-auth"))
	assert.Empty(t, registrar.Records("example.com"))

	// the wildcard authorization shares the ledger and finds the record gone
	assert.NoError(t, p.CleanUp("sub.example.com", "token", "key-auth"))
	assert.Equal(t, []string{records[0].ID}, registrar.Deleted)
}

func TestProviderCleanUpWithoutPresent(t *testing.T) {
	p, registrar := newTestProvider(t)

	assert.NoError(t, p.CleanUp("example.com", "token", "key-auth"))
	assert.Equal(t, 0, registrar.Calls["delete"])
}

func TestProviderTimeout(t *testing.T) {
	p, _ := newTestProvider(t)
	p.watcher.Timeout = 10 * time.Minute

	timeout, interval := p.Timeout()
	assert.Equal(t, 10*time.Minute, timeout)
	assert.Equal(t, propagation.DefaultInterval, interval)
}
