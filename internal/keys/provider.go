package keys

import "crypto/ecdsa"

// Provider resolves a stored credential into a signing key.
type Provider interface {
	Resolve(credential string) (*ecdsa.PrivateKey, error)
}

// PassphraseProvider decrypts credentials with a process-wide passphrase.
type PassphraseProvider struct {
	passphrase string
}

func NewPassphraseProvider(passphrase string) (*PassphraseProvider, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	return &PassphraseProvider{passphrase: passphrase}, nil
}

func (p *PassphraseProvider) Resolve(credential string) (*ecdsa.PrivateKey, error) {
	return Decrypt(credential, p.passphrase)
}
