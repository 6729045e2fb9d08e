// Package keystore persists extended spending keys encrypted under a
// passphrase. Files are sealed with XChaCha20-Poly1305 under a key
// derived with Argon2id, so a stolen key file is useless without the
// passphrase.
package keystore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/zeroledger/zeroledger/pkg/keys"
)

const (
	// EnvRootDir overrides the default keystore location.
	EnvRootDir = "ZEROLEDGER_ROOT_DIR"

	envelopeVersion = 1
	saltBytes       = 16

	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ErrDecrypt is returned when a key file cannot be opened, either
// because the passphrase is wrong or because the file was tampered with.
// The two cases are indistinguishable.
var ErrDecrypt = errors.New("keystore: cannot decrypt key file")

// envelope is the on-disk format. The version gates future parameter
// changes; the Argon2 parameters are stored so old files survive a
// default bump.
type envelope struct {
	Version uint8  `cbor:"1,keyasint"`
	Salt    []byte `cbor:"2,keyasint"`
	Nonce   []byte `cbor:"3,keyasint"`
	Sealed  []byte `cbor:"4,keyasint"`
	Time    uint32 `cbor:"5,keyasint"`
	Memory  uint32 `cbor:"6,keyasint"`
	Threads uint8  `cbor:"7,keyasint"`
}

// RootDir returns the directory key files live in: $ZEROLEDGER_ROOT_DIR
// if set, otherwise a "zeroledger" directory under the platform config
// directory.
func RootDir() (string, error) {
	if dir := os.Getenv(EnvRootDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("keystore: resolving config directory: %w", err)
	}
	return filepath.Join(base, "zeroledger"), nil
}

// DefaultPath returns the path of the named key file under RootDir.
func DefaultPath(name string) (string, error) {
	dir, err := RootDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".key"), nil
}

func deriveKey(passphrase, salt []byte, e *envelope) []byte {
	return argon2.IDKey(passphrase, salt, e.Time, e.Memory, e.Threads, chacha20poly1305.KeySize)
}

// Seal encrypts an extended spending key under the passphrase.
func Seal(random io.Reader, key *keys.ExtendedSpendingKey, passphrase []byte) ([]byte, error) {
	plaintext, err := key.MarshalBinary()
	if err != nil {
		return nil, err
	}

	e := envelope{
		Version: envelopeVersion,
		Salt:    make([]byte, saltBytes),
		Nonce:   make([]byte, chacha20poly1305.NonceSizeX),
		Time:    argonTime,
		Memory:  argonMemory,
		Threads: argonThreads,
	}
	if _, err := io.ReadFull(random, e.Salt); err != nil {
		return nil, fmt.Errorf("keystore: sampling salt: %w", err)
	}
	if _, err := io.ReadFull(random, e.Nonce); err != nil {
		return nil, fmt.Errorf("keystore: sampling nonce: %w", err)
	}

	sealKey := deriveKey(passphrase, e.Salt, &e)
	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return nil, err
	}
	e.Sealed = aead.Seal(nil, e.Nonce, plaintext, nil)

	return cbor.Marshal(&e)
}

// Open decrypts the output of Seal.
func Open(data, passphrase []byte) (*keys.ExtendedSpendingKey, error) {
	var e envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, ErrDecrypt
	}
	if e.Version != envelopeVersion || len(e.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrDecrypt
	}

	sealKey := deriveKey(passphrase, e.Salt, &e)
	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return nil, ErrDecrypt
	}
	plaintext, err := aead.Open(nil, e.Nonce, e.Sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}

	key := &keys.ExtendedSpendingKey{}
	if err := key.UnmarshalBinary(plaintext); err != nil {
		return nil, ErrDecrypt
	}
	return key, nil
}

// Save seals the key and writes it to path with owner-only permissions,
// creating parent directories as needed. The write goes through a
// temporary file so a crash never leaves a truncated key file behind.
func Save(path string, key *keys.ExtendedSpendingKey, passphrase []byte) error {
	data, err := Seal(rand.Reader, key, passphrase)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("keystore: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Load reads and decrypts the key file at path.
func Load(path string, passphrase []byte) (*keys.ExtendedSpendingKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(data, passphrase)
}
