package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"

	"github.com/asaskevich/govalidator"

	"namesilo-dns01/challenge"
	"namesilo-dns01/utils"
)

func validateCommon(conf *utils.Config) error {
	if conf.Key == "" {
		return errors.New("missing NameSilo API key (--key or NAMESILO_KEY)")
	}
	if conf.APIURL != "" && !govalidator.IsURL(conf.APIURL) {
		return fmt.Errorf("invalid API URL %q", conf.APIURL)
	}
	if conf.TTL < challenge.MinTTL || conf.TTL > challenge.MaxTTL {
		return fmt.Errorf("%w: %d", challenge.ErrInvalidTTL, conf.TTL)
	}
	if conf.CacheDir == "" {
		return errors.New("missing cache directory")
	}
	for _, ns := range conf.NameServers {
		host := ns
		if h, _, err := net.SplitHostPort(ns); err == nil {
			host = h
		}
		if !govalidator.IsIPv4(host) && !govalidator.IsDNSName(strings.TrimSuffix(host, ".")) {
			return fmt.Errorf("invalid name server %q", ns)
		}
	}
	if conf.PropagationTimeout <= 0 || conf.PollInterval <= 0 {
		return errors.New("propagation timeout and poll interval must be positive")
	}
	return nil
}

func validateDomain(domain string) error {
	name := strings.TrimPrefix(strings.TrimSuffix(domain, "."), "*.")
	if !govalidator.IsDNSName(name) {
		return fmt.Errorf("%w: %q", challenge.ErrInvalidDomain, domain)
	}
	return nil
}

func validateAuth(conf *utils.Config) error {
	if err := validateCommon(conf); err != nil {
		return err
	}
	if err := validateDomain(conf.Domain); err != nil {
		return err
	}
	if conf.Validation == "" {
		return errors.New("missing validation string (CERTBOT_VALIDATION)")
	}
	return nil
}

func validateCleanup(conf *utils.Config) error {
	if err := validateCommon(conf); err != nil {
		return err
	}
	return validateDomain(conf.Domain)
}

func validateObtain(conf *utils.Config) error {
	if err := validateCommon(conf); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(conf.Email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if len(conf.Domains) == 0 {
		return errors.New("missing domains")
	}
	for _, domain := range conf.Domains {
		if err := validateDomain(domain); err != nil {
			return err
		}
	}
	return nil
}
