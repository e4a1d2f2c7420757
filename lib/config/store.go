// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/ticketzako/cppticketer/lib/atomicfile"
	"github.com/ticketzako/cppticketer/lib/filelock"
	"github.com/ticketzako/cppticketer/lib/sealbox"
)

// Options configures Open.
type Options struct {
	// Path is the config file location, usually PathFor(dataDir).
	Path string

	// MachineID seeds the encryption key. Empty means
	// sealbox.MachineID().
	MachineID string

	// Logger receives load and save diagnostics. Nil discards.
	Logger *slog.Logger

	// LogLevel, when set, follows setting.isDebug.
	LogLevel *slog.LevelVar
}

// Store owns the configuration document and its file. All mutation
// goes through Update or one of the typed setters; each persists at
// most once. Store is safe for concurrent use.
type Store struct {
	path     string
	box      *sealbox.Box
	lock     *filelock.Lock
	logger   *slog.Logger
	logLevel *slog.LevelVar

	mu      sync.Mutex
	config  *Config
	encrypt *bool
}

// Open prepares a store at opts.Path, creating the parent directory
// and taking the single-writer lock. The document starts at Default();
// call Load to read the file.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("config: path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	machineID := opts.MachineID
	if machineID == "" {
		id, err := sealbox.MachineID()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		machineID = id
	}
	box, err := sealbox.New(machineID)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("config: creating directory: %w", err)
	}
	lock, err := filelock.TryLock(opts.Path + ".lock")
	if err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			return nil, fmt.Errorf("config: %s is in use by another cppticketer process", opts.Path)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := atomicfile.RemoveStale(opts.Path); err != nil {
		logger.Warn("removing stale temporary config file failed", "path", opts.Path, "error", err)
	}

	return &Store{
		path:     opts.Path,
		box:      box,
		lock:     lock,
		logger:   logger,
		logLevel: opts.LogLevel,
		config:   Default(),
	}, nil
}

// Path returns the config file location.
func (s *Store) Path() string { return s.path }

// Close releases the single-writer lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// OverrideEncrypt sets the in-memory encryption flag without saving.
// The override survives Load and Reset; the next save uses it.
func (s *Store) OverrideEncrypt(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encrypt = &enabled
	s.config.Setting.IsEncrypt = enabled
}

// Load reads the file into memory. A missing file is initialized with
// defaults and written. When encryption is on and the content does not
// open under the machine key, the content is parsed as plaintext
// instead; a file that fails both ways is a *LoadError.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.config = Default()
		s.applyOverrideLocked()
		s.applyLocked()
		s.logger.Info("config file not found, writing defaults", "path", s.path)
		return s.saveLocked()
	}
	if err != nil {
		return &LoadError{Path: s.path, Err: err}
	}

	document := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		plaintext := data
		if s.config.Setting.IsEncrypt {
			opened, openErr := s.box.OpenText(string(data))
			if openErr == nil {
				plaintext = opened
			} else {
				s.logger.Warn("config did not decrypt, reading it as plaintext",
					"path", s.path, "error", openErr)
			}
		}
		if err := yaml.Unmarshal(plaintext, document); err != nil {
			return &LoadError{Path: s.path, Err: fmt.Errorf("parsing: %w", err)}
		}
	}
	if err := document.Validate(); err != nil {
		return &LoadError{Path: s.path, Err: err}
	}

	s.config = document
	s.applyOverrideLocked()
	s.applyLocked()
	s.logger.Debug("config loaded", "path", s.path, "bytes", len(data),
		"encrypted", s.config.Setting.IsEncrypt)
	return nil
}

// Save writes the whole document.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// Update runs fn on a copy of the document. If fn returns an error or
// leaves an invalid document, nothing changes. Otherwise the copy
// replaces the document and is saved once, unless it is identical to
// the previous one. A failed save keeps the new document in memory and
// returns the *SaveError.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if reflect.DeepEqual(next, s.config) {
		return nil
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	s.config = next
	s.applyLocked()
	return s.saveLocked()
}

// SetToken stores the login token. An empty token clears it.
func (s *Store) SetToken(token string) error {
	return s.Update(func(c *Config) error {
		if token == "" {
			c.Account.Token = nil
			return nil
		}
		c.Account.Token = &token
		return nil
	})
}

// SetCredentials stores the account name and password.
func (s *Store) SetCredentials(account, password string) error {
	return s.Update(func(c *Config) error {
		c.Account.Account = account
		c.Account.Password = password
		return nil
	})
}

// SetBuyers replaces the selected purchasers and their count together.
func (s *Store) SetBuyers(buyers []Buyer) error {
	return s.Update(func(c *Config) error {
		c.Buyer.Buyer = append([]Buyer{}, buyers...)
		c.Buyer.Count = len(buyers)
		return nil
	})
}

// SetProduct replaces the event and tier selection. The payment
// method is left alone.
func (s *Store) SetProduct(main TicketMain, tier TicketType) error {
	return s.Update(func(c *Config) error {
		c.Product.TicketMain = main
		c.Product.TicketType = tier
		return nil
	})
}

// SetTicketMethod selects the payment channel.
func (s *Store) SetTicketMethod(method string) error {
	return s.Update(func(c *Config) error {
		c.Product.TicketMethod = method
		return nil
	})
}

// SetSetting replaces the setting block.
func (s *Store) SetSetting(setting Setting) error {
	return s.Update(func(c *Config) error {
		c.Setting = setting
		return nil
	})
}

// SetNotification replaces the notification block.
func (s *Store) SetNotification(notification Notification) error {
	return s.Update(func(c *Config) error {
		c.Notification = notification.clone()
		return nil
	})
}

// Reset moves the current file aside to path+".bak" and writes
// defaults. It is the way out of a file that no longer loads.
func (s *Store) Reset() (backup string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup = s.path + ".bak"
	if err := os.Rename(s.path, backup); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config: backing up %s: %w", s.path, err)
		}
		backup = ""
	}
	s.config = Default()
	s.applyOverrideLocked()
	s.applyLocked()
	return backup, s.saveLocked()
}

// Digest returns the hex BLAKE3 digest of the plaintext document as it
// would be written. Two stores with equal digests hold equal documents.
func (s *Store) Digest() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := yaml.Marshal(s.config)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Marshal returns the plaintext YAML form of the document.
func (s *Store) Marshal() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return yaml.Marshal(s.config)
}

func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(s.config)
	if err != nil {
		return &SaveError{Path: s.path, Err: fmt.Errorf("encoding: %w", err)}
	}
	if s.config.Setting.IsEncrypt {
		sealed, err := s.box.SealText(data)
		if err != nil {
			return &SaveError{Path: s.path, Err: err}
		}
		data = []byte(sealed)
	}
	if err := atomicfile.WriteFile(s.path, data, 0o600); err != nil {
		return &SaveError{Path: s.path, Err: err}
	}
	s.logger.Debug("config saved", "path", s.path, "bytes", len(data),
		"encrypted", s.config.Setting.IsEncrypt)
	return nil
}

func (s *Store) applyOverrideLocked() {
	if s.encrypt != nil {
		s.config.Setting.IsEncrypt = *s.encrypt
	}
}

// applyLocked pushes side-effecting settings out of the document.
func (s *Store) applyLocked() {
	if s.logLevel == nil {
		return
	}
	if s.config.Setting.IsDebug {
		s.logLevel.Set(slog.LevelDebug)
	} else {
		s.logLevel.Set(slog.LevelInfo)
	}
}
