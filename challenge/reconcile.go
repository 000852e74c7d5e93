package challenge

import (
	"context"
	"fmt"
	"strings"

	"namesilo-dns01/namesilo"
	"namesilo-dns01/utils"
)

// Registrar is the subset of the NameSilo API the challenge flow relies on.
type Registrar interface {
	AddRecord(ctx context.Context, domain string, params namesilo.RecordParams) (string, error)
	ListRecords(ctx context.Context, domain string) ([]namesilo.Record, error)
	UpdateRecord(ctx context.Context, domain, id string, params namesilo.RecordParams) (string, error)
	DeleteRecord(ctx context.Context, domain, id string) error
}

type Reconciler struct {
	Registrar Registrar
}

// Ensure publishes spec under d and returns the id that currently identifies
// the record. A record left behind by an earlier run is reused through an
// update rather than duplicated.
func (r *Reconciler) Ensure(ctx context.Context, d Domain, spec RecordSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	logger := utils.Logger.With().Str("domain", d.Domain).Str("host", spec.Host).Logger()

	id, err := r.Registrar.AddRecord(ctx, d.Domain, spec.params())
	if err == nil {
		logger.Info().Str("record_id", id).Msg("Added TXT record")
		return id, nil
	}
	if !namesilo.IsDuplicate(err) {
		return "", err
	}

	logger.Info().Msg("Record already exists, listing records to update it instead")

	records, err := r.Registrar.ListRecords(ctx, d.Domain)
	if err != nil {
		return "", err
	}

	candidate, ok := findCandidate(records, d, spec)
	if !ok {
		logger.Error().Int("records", len(records)).Msg("Could not find an existing TXT record to update")
		return "", fmt.Errorf("%w for %s", ErrNoUpdatableRecord, d.ChallengeFQDN())
	}
	logger.Info().Str("record_id", candidate.ID).Str("candidate_host", candidate.Host).Msg("Updating existing record")

	id, err = r.Registrar.UpdateRecord(ctx, d.Domain, candidate.ID, spec.params())
	if err == nil {
		logger.Info().Str("record_id", id).Msg("Updated TXT record")
		return id, nil
	}
	if !namesilo.IsDuplicate(err) {
		return "", err
	}

	// the requested record is already published as is
	for _, rec := range records {
		if isChallengeRecord(rec, d, spec) && rec.Value == spec.Value {
			return rec.ID, nil
		}
	}
	return candidate.ID, nil
}

// findCandidate picks the record to overwrite, in order of preference: the
// exact record, any TXT record at the challenge host, then the first record in
// list order whose host carries the challenge label or whose type is TXT. The
// last pass is a best effort match since the registrar may not report the host
// the way it was requested.
func findCandidate(records []namesilo.Record, d Domain, spec RecordSpec) (namesilo.Record, bool) {
	passes := []func(namesilo.Record) bool{
		func(rec namesilo.Record) bool { return isChallengeRecord(rec, d, spec) && rec.Value == spec.Value },
		func(rec namesilo.Record) bool { return isChallengeRecord(rec, d, spec) },
		func(rec namesilo.Record) bool {
			return strings.HasPrefix(strings.ToLower(rec.Host), Label) || rec.Type == namesilo.TypeTXT
		},
	}
	for _, match := range passes {
		for _, rec := range records {
			if match(rec) {
				return rec, true
			}
		}
	}
	return namesilo.Record{}, false
}

func isChallengeRecord(rec namesilo.Record, d Domain, spec RecordSpec) bool {
	if rec.Type != namesilo.TypeTXT {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(rec.Host), ".")
	return host == spec.Host || host == spec.Host+"."+d.Domain
}
