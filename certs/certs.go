package certs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"

	"namesilo-dns01/utils"
)

const renewBefore = 30 * 24 * time.Hour

type certsClient struct {
	legoClient *lego.Client
	dir        string
}

func NewCertsClient(conf *utils.Config, account *Account, provider *Provider) (*certsClient, error) {
	config := lego.NewConfig(account)
	config.CADirURL = conf.CADirURL
	legoClient, err := lego.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create ACME client: %w", err)
	}

	if err := legoClient.Challenge.SetDNS01Provider(provider, provider.PreCheck()); err != nil {
		return nil, fmt.Errorf("set DNS-01 provider: %w", err)
	}

	return &certsClient{legoClient: legoClient, dir: certsDir(conf)}, nil
}

// RequestCertificate obtains a certificate for domains, or renews the one
// saved by a previous run when it expires within 30 days.
func (c *certsClient) RequestCertificate(domains []string) error {
	name := certName(domains)
	utils.Logger.Info().Strs("domains", domains).Str("name", name).Msg("Requesting certificate")

	last := c.lastCertificate(name)
	if last != nil {
		timeLeft, err := timeLeft(last.Certificate, time.Now())
		if err != nil {
			return err
		}
		if timeLeft > renewBefore {
			utils.Logger.Info().Msgf("%d days left before expiration, skip renewal", int(timeLeft.Hours()/24))
			return nil
		}

		utils.Logger.Info().Str("name", name).Msg("Renewing certificate")
		renewed, err := c.legoClient.Certificate.Renew(*last, true, false, "")
		if err != nil {
			return fmt.Errorf("renew certificate: %w", err)
		}
		return persistFiles(filepath.Join(c.dir, name), renewed)
	}

	cert, err := c.legoClient.Certificate.Obtain(certificate.ObtainRequest{Domains: domains, Bundle: true})
	if err != nil {
		return fmt.Errorf("obtain certificate: %w", err)
	}
	return persistFiles(filepath.Join(c.dir, name), cert)
}

func (c *certsClient) lastCertificate(name string) *certificate.Resource {
	jsonBytes, err := os.ReadFile(filepath.Join(c.dir, name, "output.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		utils.Logger.Error().Err(err).Msg("Falling back to getting a brand new cert")
		return nil
	}

	last := &certificate.Resource{}
	if err := json.Unmarshal(jsonBytes, last); err != nil {
		utils.Logger.Error().Err(err).Msg("Falling back to getting a brand new cert")
		return nil
	}

	last, err = c.legoClient.Certificate.Get(last.CertURL, true)
	if err != nil {
		utils.Logger.Error().Err(err).Msg("Falling back to getting a brand new cert")
		return nil
	}
	return last
}

func timeLeft(pemBundle []byte, now time.Time) (time.Duration, error) {
	certificates, err := certcrypto.ParsePEMBundle(pemBundle)
	if err != nil {
		return 0, fmt.Errorf("parse PEM bundle from last certificate: %w", err)
	}
	return certificates[0].NotAfter.Sub(now.UTC()), nil
}

// certName is the directory a certificate is saved under, named after its
// first domain.
func certName(domains []string) string {
	if len(domains) == 0 {
		return "default"
	}
	return strings.Replace(strings.ToLower(domains[0]), "*", "_", 1)
}

func persistFiles(dir string, cert *certificate.Resource) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "server.pem"), cert.Certificate, 0o644); err != nil {
		return fmt.Errorf("save server.pem: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "server.key"), cert.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("save server.key: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(cert, "", "\t")
	if err != nil {
		return fmt.Errorf("marshal certificate resource: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "output.json"), jsonBytes, 0o644); err != nil {
		return fmt.Errorf("save output.json: %w", err)
	}

	utils.Logger.Info().Str("dir", dir).Msg("Saved certificate")
	return nil
}
