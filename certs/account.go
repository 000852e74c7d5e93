package certs

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"

	"namesilo-dns01/utils"
)

// Account is the ACME account lego acts on behalf of.
type Account struct {
	Email        string
	Registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *Account) GetEmail() string {
	return u.Email
}
func (u *Account) GetRegistration() *registration.Resource {
	return u.Registration
}
func (u *Account) GetPrivateKey() crypto.PrivateKey {
	return u.key
}

// LoadAccount reads the account saved for conf.Email, registering a new one
// with the CA the first time.
func LoadAccount(conf *utils.Config) (*Account, error) {
	jsonBytes, err := os.ReadFile(conf.AccountFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		utils.Logger.Info().Str("email", conf.Email).Msg("No ACME account found, registering")
		return RegisterAccount(conf)
	}
	if err != nil {
		return nil, fmt.Errorf("read account: %w", err)
	}

	account := &Account{}
	if err := json.Unmarshal(jsonBytes, account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}

	pemBytes, err := os.ReadFile(conf.KeyFilePath)
	if err != nil {
		return nil, fmt.Errorf("read account key: %w", err)
	}
	account.key, err = decodeKey(pemBytes)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func RegisterAccount(conf *utils.Config) (*Account, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}

	account := &Account{
		Email: conf.Email,
		key:   privateKey,
	}
	config := lego.NewConfig(account)
	config.CADirURL = conf.CADirURL
	legoClient, err := lego.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create ACME client: %w", err)
	}

	reg, err := legoClient.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}
	if reg.Body.Status != "valid" {
		return nil, fmt.Errorf("registration failed with status %s", reg.Body.Status)
	}
	account.Registration = reg

	pemBytes, err := encodeKey(privateKey)
	if err != nil {
		return nil, err
	}
	if err := writeFile(conf.KeyFilePath, pemBytes); err != nil {
		return nil, err
	}

	jsonBytes, err := json.MarshalIndent(account, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	if err := writeFile(conf.AccountFilePath, jsonBytes); err != nil {
		return nil, err
	}

	utils.Logger.Info().Str("email", conf.Email).Str("uri", reg.URI).Msg("Registered ACME account")
	return account, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func encodeKey(privateKey *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("encode account key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}

func decodeKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("account key is not PEM encoded")
	}
	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse account key: %w", err)
	}
	return privateKey, nil
}
