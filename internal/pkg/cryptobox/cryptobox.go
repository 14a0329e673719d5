// Package cryptobox provides at-rest encryption and irreversible redaction
// for sensitive fields.
//
// Encryption derives a fresh AES-256 key per call from the master secret and
// a random salt via PBKDF2, then seals with AES-GCM. Two encryptions of the
// same plaintext never produce the same ciphertext, so encrypted fields do
// not leak equality. HashValue is the opposite trade-off: a fast,
// deterministic fingerprint for audit anonymization — never a password store.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// AlgAESGCM identifies the only cipher this package currently emits.
// Stored in every blob so the format can evolve without breaking decryption.
const AlgAESGCM = "aes-256-gcm"

const (
	saltSize = 16
	keySize  = 32

	// DefaultIterations is the PBKDF2 work factor applied when the
	// configuration does not set one.
	DefaultIterations = 100_000
)

// EncryptedBlob carries everything needed to decrypt besides the master key.
// It is embedded wherever a field needs at-rest protection, never persisted
// as its own entity.
type EncryptedBlob struct {
	Ciphertext []byte `json:"ciphertext" bson:"ciphertext"`
	IV         []byte `json:"iv" bson:"iv"`
	Salt       []byte `json:"salt" bson:"salt"`
	Alg        string `json:"alg" bson:"alg"`
}

// Box performs symmetric encryption and hashing with a configured master key.
type Box struct {
	masterKey  []byte
	iterations int
	digest     func() hash.Hash
}

// New builds a Box. The digest selects the PBKDF2 PRF: "sha256" or "sha512".
func New(masterKey string, iterations int, digest string) (*Box, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("%w: master key is not set", domain.ErrConfiguration)
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	var h func() hash.Hash
	switch digest {
	case "", "sha256":
		h = sha256.New
	case "sha512":
		h = sha512.New
	default:
		return nil, fmt.Errorf("%w: unsupported KDF digest %q", domain.ErrConfiguration, digest)
	}

	return &Box{masterKey: []byte(masterKey), iterations: iterations, digest: h}, nil
}

// Encrypt seals plaintext under a key derived from the master secret and a
// fresh random salt. The returned blob is self-describing: salt, IV, and
// algorithm identifier travel with the ciphertext.
func (b *Box) Encrypt(plaintext []byte) (*EncryptedBlob, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := b.aead(salt)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	return &EncryptedBlob{
		Ciphertext: gcm.Seal(nil, iv, plaintext, nil),
		IV:         iv,
		Salt:       salt,
		Alg:        AlgAESGCM,
	}, nil
}

// Decrypt re-derives the key from the blob's salt and opens the ciphertext.
// Tampered or malformed blobs fail with domain.ErrDecryptionFailed; GCM's
// authentication tag makes the two cases indistinguishable on purpose.
func (b *Box) Decrypt(blob *EncryptedBlob) ([]byte, error) {
	if blob == nil || blob.Alg != AlgAESGCM {
		return nil, fmt.Errorf("%w: unknown algorithm", domain.ErrDecryptionFailed)
	}
	if len(blob.Salt) != saltSize {
		return nil, fmt.Errorf("%w: malformed salt", domain.ErrDecryptionFailed)
	}

	gcm, err := b.aead(blob.Salt)
	if err != nil {
		return nil, err
	}
	if len(blob.IV) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: malformed iv", domain.ErrDecryptionFailed)
	}

	plaintext, err := gcm.Open(nil, blob.IV, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// EncryptString seals a string field and returns the blob as compact JSON,
// ready to drop into a text column or document field.
func (b *Box) EncryptString(value string) (string, error) {
	blob, err := b.Encrypt([]byte(value))
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("encode blob: %w", err)
	}
	return string(encoded), nil
}

// DecryptString reverses EncryptString.
func (b *Box) DecryptString(encoded string) (string, error) {
	var blob EncryptedBlob
	if err := json.Unmarshal([]byte(encoded), &blob); err != nil {
		return "", fmt.Errorf("%w: malformed blob encoding", domain.ErrDecryptionFailed)
	}
	plaintext, err := b.Decrypt(&blob)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// HashValue returns a hex-encoded SHA-256 fingerprint of value. Deterministic
// and fast — suitable for redacting identifying fields in audit records,
// unsuitable for storing passwords.
func HashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func (b *Box) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(b.masterKey, salt, b.iterations, keySize, b.digest)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}
