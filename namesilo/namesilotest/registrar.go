// Package namesilotest provides an in-memory registrar that mimics the
// NameSilo DNS API semantics, for tests.
package namesilotest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"namesilo-dns01/namesilo"
)

// Registrar stores records per domain. Adds of an identical host/type/value
// fail with the duplicate code and updates always assign a new id.
type Registrar struct {
	mu      sync.Mutex
	nextID  int
	records map[string][]namesilo.Record

	// Errors injected per operation ("add", "list", "update", "delete"); a
	// "delete:<id>" key fails the delete of that id only.
	Errors map[string]error

	Calls   map[string]int
	Deleted []string
}

func NewRegistrar() *Registrar {
	return &Registrar{
		nextID:  1000,
		records: map[string][]namesilo.Record{},
		Errors:  map[string]error{},
		Calls:   map[string]int{},
	}
}

// Seed stores rec as is, keeping its id.
func (r *Registrar) Seed(domain string, rec namesilo.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[domain] = append(r.records[domain], rec)
}

// Records returns a copy of the records stored for domain.
func (r *Registrar) Records(domain string) []namesilo.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]namesilo.Record(nil), r.records[domain]...)
}

func (r *Registrar) newID() string {
	r.nextID++
	return fmt.Sprint(r.nextID)
}

func fqdn(domain, host string) string {
	if host == "" {
		return domain
	}
	return host + "." + domain
}

func duplicate(operation string) error {
	return &namesilo.APIError{
		Operation: operation,
		Code:      namesilo.CodeDuplicate,
		Detail:    "could not add resource record to domain since it already exists (duplicate)",
	}
}

func (r *Registrar) AddRecord(ctx context.Context, domain string, params namesilo.RecordParams) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["add"]++
	if err := r.Errors["add"]; err != nil {
		return "", err
	}

	host := fqdn(domain, params.Host)
	for _, rec := range r.records[domain] {
		if rec.Type == params.Type && strings.EqualFold(rec.Host, host) && rec.Value == params.Value {
			return "", duplicate("dnsAddRecord")
		}
	}

	id := r.newID()
	r.records[domain] = append(r.records[domain], namesilo.Record{
		ID:    id,
		Type:  params.Type,
		Host:  host,
		Value: params.Value,
		TTL:   params.TTL,
	})
	return id, nil
}

func (r *Registrar) ListRecords(ctx context.Context, domain string) ([]namesilo.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["list"]++
	if err := r.Errors["list"]; err != nil {
		return nil, err
	}
	return append([]namesilo.Record(nil), r.records[domain]...), nil
}

func (r *Registrar) UpdateRecord(ctx context.Context, domain, id string, params namesilo.RecordParams) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["update"]++
	if err := r.Errors["update"]; err != nil {
		return "", err
	}

	records := r.records[domain]
	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		rec.ID = r.newID()
		rec.Host = fqdn(domain, params.Host)
		rec.Value = params.Value
		rec.TTL = params.TTL
		records[i] = rec
		return rec.ID, nil
	}
	return "", &namesilo.APIError{Operation: "dnsUpdateRecord", Code: "210", Detail: "Invalid resource record id"}
}

func (r *Registrar) DeleteRecord(ctx context.Context, domain, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["delete"]++
	if err := r.Errors["delete:"+id]; err != nil {
		return err
	}
	if err := r.Errors["delete"]; err != nil {
		return err
	}

	records := r.records[domain]
	for i, rec := range records {
		if rec.ID == id {
			r.records[domain] = append(records[:i], records[i+1:]...)
			r.Deleted = append(r.Deleted, id)
			return nil
		}
	}
	return &namesilo.APIError{Operation: "dnsDeleteRecord", Code: "210", Detail: "Invalid resource record id"}
}
