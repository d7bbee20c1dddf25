// Package keyring is the device-local store of enrolled accounts. Account
// secrets live in a single file sealed under a passphrase.
package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	u "github.com/gofrs/uuid/v5"

	cc "github.com/and161185/autofill-glue/internal/crypto/clientcrypto"
)

const (
	formatVersion = 1
	keyInfo       = "autofill-keyring/v1"
)

// ErrLocked is returned when the keyring cannot be opened with the passphrase.
var ErrLocked = errors.New("keyring: wrong passphrase or corrupted file")

type fileFormat struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Sealed  []byte `json:"sealed"`
}

type contents struct {
	DeviceID string            `json:"device_id"`
	Accounts map[string]string `json:"accounts"`
}

// Keyring holds the device ID and account secrets. It is safe for
// concurrent use; reads never touch the disk.
type Keyring struct {
	path string
	key  []byte
	salt []byte

	writeMu sync.Mutex // serializes writers; held across disk I/O

	mu       sync.RWMutex
	deviceID string
	secrets  map[string]string
}

// Open loads the keyring at path, creating an empty one with a fresh
// device ID when the file does not exist yet.
func Open(path string, passphrase []byte) (*Keyring, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return create(path, passphrase)
	}
	if err != nil {
		return nil, err
	}

	var ff fileFormat
	if err := json.Unmarshal(b, &ff); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocked, err)
	}
	if ff.Version != formatVersion {
		return nil, fmt.Errorf("keyring: unsupported version %d", ff.Version)
	}
	key, err := fileKey(passphrase, ff.Salt)
	if err != nil {
		return nil, err
	}
	pt, err := cc.Open(key, ff.Sealed, []byte(keyInfo))
	if err != nil {
		return nil, ErrLocked
	}
	var c contents
	if err := json.Unmarshal(pt, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocked, err)
	}
	if c.Accounts == nil {
		c.Accounts = map[string]string{}
	}
	return &Keyring{path: path, key: key, salt: ff.Salt, deviceID: c.DeviceID, secrets: c.Accounts}, nil
}

func create(path string, passphrase []byte) (*Keyring, error) {
	salt, err := cc.Rand(cc.SaltLen)
	if err != nil {
		return nil, err
	}
	key, err := fileKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	id, err := u.NewV4()
	if err != nil {
		return nil, err
	}
	k := &Keyring{path: path, key: key, salt: salt, deviceID: id.String(), secrets: map[string]string{}}
	return k, k.save()
}

func fileKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("keyring: empty passphrase")
	}
	return cc.DeriveFileKey(cc.DeriveKEK(passphrase, salt), keyInfo)
}

// DeviceID returns the stable identifier of this device.
func (k *Keyring) DeviceID() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.deviceID
}

// AccountNames returns the enrolled account names, sorted. Never nil.
func (k *Keyring) AccountNames() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.secrets))
	for n := range k.secrets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Secret returns the device secret enrolled for account.
func (k *Keyring) Secret(account string) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	s, ok := k.secrets[account]
	return s, ok
}

// Put stores the secret for account and persists the keyring.
func (k *Keyring) Put(account, secret string) error {
	if account == "" || secret == "" {
		return errors.New("keyring: empty account or secret")
	}
	return k.update(func(m map[string]string) bool {
		m[account] = secret
		return true
	})
}

// Remove forgets account. Removing an unknown account is a no-op.
func (k *Keyring) Remove(account string) error {
	return k.update(func(m map[string]string) bool {
		if _, ok := m[account]; !ok {
			return false
		}
		delete(m, account)
		return true
	})
}

// update applies fn to a copy of the secrets, persists the copy and only
// then swaps it in. Readers hold mu only for the swap, never during I/O.
func (k *Keyring) update(fn func(map[string]string) bool) error {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	k.mu.RLock()
	next := make(map[string]string, len(k.secrets)+1)
	for n, s := range k.secrets {
		next[n] = s
	}
	deviceID := k.deviceID
	k.mu.RUnlock()

	if !fn(next) {
		return nil
	}
	if err := k.write(deviceID, next); err != nil {
		return err
	}
	k.mu.Lock()
	k.secrets = next
	k.mu.Unlock()
	return nil
}

func (k *Keyring) save() error {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	return k.write(k.deviceID, k.secrets)
}

// write goes through a temp file and rename so a crash never leaves
// a truncated keyring.
func (k *Keyring) write(deviceID string, secrets map[string]string) error {
	pt, err := json.Marshal(contents{DeviceID: deviceID, Accounts: secrets})
	if err != nil {
		return err
	}
	sealed, err := cc.Seal(k.key, pt, []byte(keyInfo))
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(fileFormat{Version: formatVersion, Salt: k.salt, Sealed: sealed}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(k.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".keyring-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), k.path)
}
