package challenge

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Label is the well-known host label DNS-01 challenges are published under.
const Label = "_acme-challenge"

// Domain is a certificate domain split into its registrable part and the
// labels left of it.
type Domain struct {
	FQDN      string // normalized, no trailing dot, no wildcard prefix
	Domain    string // registrable domain, e.g. "example.com"
	Subdomain string // e.g. "sub", empty at the apex
}

// Split parses fqdn with the public suffix list.
func Split(fqdn string) (Domain, error) {
	name := strings.ToLower(strings.TrimSpace(fqdn))
	name = strings.TrimSuffix(name, ".")
	name = strings.TrimPrefix(name, "*.")
	if name == "" {
		return Domain{}, fmt.Errorf("%w: %q", ErrInvalidDomain, fqdn)
	}

	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return Domain{}, fmt.Errorf("%w: %q: %v", ErrInvalidDomain, fqdn, err)
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return Domain{}, fmt.Errorf("%w: %q: %v", ErrInvalidDomain, fqdn, err)
	}

	subdomain := strings.TrimSuffix(strings.TrimSuffix(ascii, registrable), ".")
	return Domain{FQDN: ascii, Domain: registrable, Subdomain: subdomain}, nil
}

// ChallengeHost is the record host relative to the registrable domain.
func (d Domain) ChallengeHost() string {
	if d.Subdomain == "" {
		return Label
	}
	return Label + "." + d.Subdomain
}

// ChallengeFQDN is the name the challenge TXT record is served under.
func (d Domain) ChallengeFQDN() string {
	return d.ChallengeHost() + "." + d.Domain
}
