package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"namesilo-dns01/challenge"
	"namesilo-dns01/propagation"
	"namesilo-dns01/utils"
)

func validConfig() *utils.Config {
	return &utils.Config{
		Key:                "secret",
		APIURL:             "https://www.namesilo.com/api",
		TTL:                challenge.DefaultTTL,
		CacheDir:           "/tmp",
		NameServers:        propagation.DefaultNameServers,
		PropagationTimeout: propagation.DefaultTimeout,
		PollInterval:       propagation.DefaultInterval,
		Domain:             "*.sub.example.com",
		Validation:         "token",
		Email:              "admin@example.com",
		Domains:            []string{"example.com", "*.example.com"},
	}
}

func TestValidateAuth(t *testing.T) {
	assert.NoError(t, validateAuth(validConfig()))

	tests := map[string]func(*utils.Config){
		"missing key":        func(c *utils.Config) { c.Key = "" },
		"ttl too low":        func(c *utils.Config) { c.TTL = 60 },
		"ttl too high":       func(c *utils.Config) { c.TTL = challenge.MaxTTL + 1 },
		"bad domain":         func(c *utils.Config) { c.Domain = "not a domain" },
		"missing validation": func(c *utils.Config) { c.Validation = "" },
		"bad nameserver":     func(c *utils.Config) { c.NameServers = []string{"ns1 dnsowl"} },
		"zero interval":      func(c *utils.Config) { c.PollInterval = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			conf := validConfig()
			mutate(conf)
			assert.Error(t, validateAuth(conf))
		})
	}
}

func TestValidateNameServersWithPorts(t *testing.T) {
	conf := validConfig()
	conf.NameServers = []string{"127.0.0.1:5353", "ns1.dnsowl.com.", "ns2.dnsowl.com:53"}
	assert.NoError(t, validateCommon(conf))
}

func TestValidateCleanupIgnoresValidation(t *testing.T) {
	conf := validConfig()
	conf.Validation = ""
	assert.NoError(t, validateCleanup(conf))
}

func TestValidateObtain(t *testing.T) {
	assert.NoError(t, validateObtain(validConfig()))

	conf := validConfig()
	conf.Email = "not an email"
	assert.Error(t, validateObtain(conf))

	conf = validConfig()
	conf.Domains = nil
	assert.Error(t, validateObtain(conf))

	conf = validConfig()
	conf.PropagationTimeout = -time.Second
	assert.Error(t, validateObtain(conf))
}

func TestValidateDomain(t *testing.T) {
	assert.ErrorIs(t, validateDomain(""), challenge.ErrInvalidDomain)
	assert.NoError(t, validateDomain("example.com."))
}
