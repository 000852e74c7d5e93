package challenge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const ledgerFile = "record_ids"

// Ledger is the list of record ids an auth run created for one domain. It is
// the only state shared between the auth and cleanup invocations.
type Ledger struct {
	Path string
}

// LedgerPath is deterministic in cacheDir and the certificate domain so that
// the cleanup process finds what the auth process wrote.
func LedgerPath(cacheDir string, d Domain) string {
	return filepath.Join(cacheDir, "CERTBOT_"+d.FQDN, ledgerFile)
}

func NewLedger(cacheDir string, d Domain) *Ledger {
	return &Ledger{Path: LedgerPath(cacheDir, d)}
}

// Append adds id on its own line, creating the file if needed.
func (l *Ledger) Append(id string) (err error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o700); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger: %w", cerr)
		}
	}()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}
	return nil
}

// ReadAll returns the non-empty, trimmed lines of the ledger.
func (l *Ledger) ReadAll() ([]string, error) {
	data, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoLedgerFound, l.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
