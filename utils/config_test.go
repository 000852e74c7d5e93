package utils

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("key", "secret")
	viper.Set("ttl", 7200)
	viper.Set("nameservers", "ns1.dnsowl.com,ns2.dnsowl.com")
	viper.Set("propagation-timeout", "30m")
	viper.Set("poll-interval", "3m")
	viper.Set("certbot-domain", "sub.example.com")

	conf, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", conf.Key)
	assert.Equal(t, 7200, conf.TTL)
	assert.Equal(t, []string{"ns1.dnsowl.com", "ns2.dnsowl.com"}, conf.NameServers)
	assert.Equal(t, 30*time.Minute, conf.PropagationTimeout)
	assert.Equal(t, 3*time.Minute, conf.PollInterval)
	assert.Equal(t, "sub.example.com", conf.Domain)
	assert.Same(t, conf, GetConfig())
}

func TestInitConfigRejectsMalformedDuration(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("propagation-timeout", "half an hour")

	_, err := InitConfig()
	assert.ErrorContains(t, err, "propagation-timeout")
}
