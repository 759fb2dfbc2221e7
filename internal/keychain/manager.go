// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores athenacli secrets (the Redshift password or DSN and
// the Athena secret access key) in the OS credential store.
//
// On macOS the `security` command is used directly, falling back to the
// keyring library. Elsewhere the keyring library picks the native backend
// (Secret Service, KWallet, pass or Windows Credential Manager). Non-secret
// settings live in the config file instead.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "athenacli"

// Keys used for storing secrets in the OS keychain.
const (
	KeyRedshiftPassword = "redshift_password"
	KeyRedshiftDSN      = "redshift_dsn"
	KeyAthenaSecret     = "athena_secret_access_key"
)

// AllKeys lists every key ClearAll removes.
var AllKeys = []string{KeyRedshiftPassword, KeyRedshiftDSN, KeyAthenaSecret}

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("secret not found in keychain")

var (
	globalManager *Manager
	mu            sync.Mutex
)

// store is the minimal secret store both backends provide.
type store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe operations on the OS keychain.
type Manager struct {
	mu    sync.RWMutex
	store store
}

// NewManager opens the platform credential store.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		if sec, err := newSecurityBackend(); err == nil {
			return &Manager{store: sec}, nil
		}
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{store: ringStore{ring: ring}}
}

// GetManager returns the process-wide manager, creating it on first use.
// A failed initialisation is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return m, nil
}

func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	})
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// Save stores value under key.
func (m *Manager) Save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Set(key, value)
}

// Load returns the value stored under key, or ErrNotFound.
func (m *Manager) Load(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, err := m.store.Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Delete removes key. Missing keys are not an error.
func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(key)
}

func (m *Manager) SaveRedshiftPassword(pw string) error  { return m.Save(KeyRedshiftPassword, pw) }
func (m *Manager) LoadRedshiftPassword() (string, error) { return m.Load(KeyRedshiftPassword) }
func (m *Manager) SaveRedshiftDSN(dsn string) error      { return m.Save(KeyRedshiftDSN, dsn) }
func (m *Manager) LoadRedshiftDSN() (string, error)      { return m.Load(KeyRedshiftDSN) }
func (m *Manager) SaveAthenaSecret(s string) error       { return m.Save(KeyAthenaSecret, s) }
func (m *Manager) LoadAthenaSecret() (string, error)     { return m.Load(KeyAthenaSecret) }

// ClearAll removes every athenacli secret and returns the first failure.
func (m *Manager) ClearAll() error {
	var first error
	for _, k := range AllKeys {
		if err := m.Delete(k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ringStore adapts keyring.Keyring to store.
type ringStore struct {
	ring keyring.Keyring
}

func (r ringStore) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (r ringStore) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringStore) Delete(key string) error {
	err := r.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
