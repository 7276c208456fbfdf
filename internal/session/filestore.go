package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	// scrypt cost parameters
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore keeps one sealed file per key in a directory. Each file is
// salt | nonce | secretbox(value), with the box key derived from the
// passphrase and salt by scrypt.
type FileStore struct {
	dir        string
	passphrase []byte
}

// NewFileStore creates dir if needed and returns a store sealed with passphrase.
func NewFileStore(dir, passphrase string) (*FileStore, error) {
	if passphrase == "" {
		return nil, errors.New("session: passphrase is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create state dir: %w", err)
	}
	return &FileStore{dir: dir, passphrase: []byte(passphrase)}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("session: invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".sealed"), nil
}

func (s *FileStore) deriveKey(salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}

// Get opens the sealed value for key.
func (s *FileStore) Get(key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: read %s: %w", key, err)
	}
	if len(data) < saltSize+nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("session: %s is truncated", key)
	}

	salt := data[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], data[saltSize:saltSize+nonceSize])

	boxKey, err := s.deriveKey(salt)
	if err != nil {
		return "", err
	}
	plain, ok := secretbox.Open(nil, data[saltSize+nonceSize:], &nonce, boxKey)
	if !ok {
		return "", fmt.Errorf("session: %s cannot be opened with this passphrase", key)
	}
	return string(plain), nil
}

// Set seals value under key, replacing the file atomically.
func (s *FileStore) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	buf := make([]byte, saltSize+nonceSize, saltSize+nonceSize+len(value)+secretbox.Overhead)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Errorf("session: random: %w", err)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], buf[saltSize:])

	boxKey, err := s.deriveKey(buf[:saltSize])
	if err != nil {
		return err
	}
	sealed := secretbox.Seal(buf, []byte(value), &nonce, boxKey)

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *FileStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: delete %s: %w", key, err)
	}
	return nil
}
