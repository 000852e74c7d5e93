package challenge

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"namesilo-dns01/utils"
)

type Cleaner struct {
	Registrar Registrar
}

// DeleteAll attempts to delete every id, concurrently. A failing delete does
// not stop the others. Ids that failed but are no longer listed by the
// registrar count as deleted, so running it again over the same ids succeeds.
// Otherwise the first failure is returned once all deletes have been attempted.
func (c *Cleaner) DeleteAll(ctx context.Context, d Domain, ids []string) error {
	// no shared context: one failure must not cancel the remaining deletes
	var g errgroup.Group
	var mu sync.Mutex
	failed := map[string]error{}

	ids = dedupe(ids)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := c.Registrar.DeleteRecord(ctx, d.Domain, id); err != nil {
				mu.Lock()
				failed[id] = fmt.Errorf("delete record %s: %w", id, err)
				mu.Unlock()
				return nil
			}
			utils.Logger.Info().Str("domain", d.Domain).Str("record_id", id).Msg("Deleted record")
			return nil
		})
	}
	g.Wait()

	if len(failed) == 0 {
		return nil
	}
	return c.settle(ctx, d, ids, failed)
}

// settle drops the failures whose record is already gone and returns the
// first remaining one, in ledger order.
func (c *Cleaner) settle(ctx context.Context, d Domain, ids []string, failed map[string]error) error {
	records, listErr := c.Registrar.ListRecords(ctx, d.Domain)
	if listErr != nil {
		utils.Logger.Warn().Err(listErr).Str("domain", d.Domain).Msg("Could not list records to check failed deletes")
	}
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.ID] = true
	}

	var first error
	for _, id := range ids {
		err, ok := failed[id]
		if !ok {
			continue
		}
		logger := utils.Logger.With().Str("domain", d.Domain).Str("record_id", id).Logger()
		if listErr == nil && !present[id] {
			logger.Info().Msg("Record already gone")
			continue
		}
		logger.Error().Err(err).Msg("Failed to delete record")
		if first == nil {
			first = err
		}
	}
	return first
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
