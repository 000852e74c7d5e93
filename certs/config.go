package certs

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/go-acme/lego/v4/lego"

	"namesilo-dns01/utils"
)

// ConfigurePaths fills in the CA directory and the account file locations,
// which depend on the staging flag, the email and the lego directory.
func ConfigurePaths(conf *utils.Config) error {
	caDirURL := lego.LEDirectoryProduction
	if conf.Staging {
		caDirURL = lego.LEDirectoryStaging
	}

	parsed, err := url.Parse(caDirURL)
	if err != nil {
		return fmt.Errorf("parse CA directory URL: %w", err)
	}

	dir := conf.LegoDir
	if dir == "" {
		dir = ".lego"
	}
	accountDir := filepath.Join(dir, "accounts", parsed.Hostname(), conf.Email)

	conf.CADirURL = caDirURL
	conf.AccountFilePath = filepath.Join(accountDir, "account.json")
	conf.KeyFilePath = filepath.Join(accountDir, "keys", conf.Email+".key")
	return nil
}

func certsDir(conf *utils.Config) string {
	dir := conf.LegoDir
	if dir == "" {
		dir = ".lego"
	}
	return filepath.Join(dir, "certs")
}
