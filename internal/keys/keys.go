// Package keys generates managed signing keys and keeps them encrypted at rest.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2-HMAC-SHA256 work factor for new credentials.
	DefaultIterations = 310_000
	saltLen           = 16
	aesKeyLen         = 32
	currentVersion    = 1
)

var (
	ErrNoPassphrase = errors.New("keys: passphrase must not be empty")
	ErrDecrypt      = errors.New("keys: decryption failed")
)

// blob is the JSON form of an encrypted key before base64 wrapping.
type blob struct {
	Version    int    `json:"version"`
	Iterations int    `json:"iterations"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Managed is a freshly generated account and its encrypted credential.
type Managed struct {
	Address    common.Address
	Credential string
}

// Generate creates a new secp256k1 key and encrypts it with passphrase.
func Generate(passphrase string, iterations int) (Managed, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Managed{}, fmt.Errorf("keys: generating key: %w", err)
	}
	credential, err := Encrypt(key, passphrase, iterations)
	if err != nil {
		return Managed{}, err
	}
	return Managed{Address: crypto.PubkeyToAddress(key.PublicKey), Credential: credential}, nil
}

// EncryptHex encrypts a hex private key (with or without 0x).
func EncryptHex(privateKeyHex, passphrase string, iterations int) (Managed, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return Managed{}, fmt.Errorf("keys: invalid private key: %w", err)
	}
	credential, err := Encrypt(key, passphrase, iterations)
	if err != nil {
		return Managed{}, err
	}
	return Managed{Address: crypto.PubkeyToAddress(key.PublicKey), Credential: credential}, nil
}

// Encrypt seals key with PBKDF2-derived AES-256-GCM and returns an opaque credential string.
func Encrypt(key *ecdsa.PrivateKey, passphrase string, iterations int) (string, error) {
	if passphrase == "" {
		return "", ErrNoPassphrase
	}
	if key == nil {
		return "", errors.New("keys: key is nil")
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("keys: generating salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt, iterations)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("keys: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, crypto.FromECDSA(key), nil)
	raw, err := json.Marshal(blob{
		Version:    currentVersion,
		Iterations: iterations,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("keys: encoding credential: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt opens a credential produced by Encrypt.
func Decrypt(credential, passphrase string) (*ecdsa.PrivateKey, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("keys: decoding credential: %w", err)
	}
	var stored blob
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("keys: parsing credential: %w", err)
	}
	if stored.Version != currentVersion {
		return nil, fmt.Errorf("keys: unsupported version %d", stored.Version)
	}
	if stored.Iterations <= 0 {
		return nil, fmt.Errorf("keys: invalid iteration count %d", stored.Iterations)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return nil, fmt.Errorf("keys: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return nil, fmt.Errorf("keys: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("keys: decoding ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, salt, stored.Iterations)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("keys: invalid nonce length %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	key, err := crypto.ToECDSA(plaintext)
	if err != nil {
		return nil, fmt.Errorf("keys: invalid decrypted key: %w", err)
	}
	return key, nil
}

func newGCM(passphrase string, salt []byte, iterations int) (cipher.AEAD, error) {
	derived := pbkdf2.Key([]byte(passphrase), salt, iterations, aesKeyLen, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("keys: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keys: creating GCM: %w", err)
	}
	return gcm, nil
}
