// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// DataDirEnv overrides the data directory when --data-dir is not given.
const DataDirEnv = "CPPTICKETER_DATA_DIR"

// Config is the persisted document.
type Config struct {
	Setting      Setting      `yaml:"setting"`
	Account      Account      `yaml:"account"`
	Buyer        Buyers       `yaml:"buyer"`
	Notification Notification `yaml:"notification"`
	Product      Product      `yaml:"product"`
}

// Setting holds run-time knobs. Intervals are milliseconds, matching
// the file format.
type Setting struct {
	IsDebug bool `yaml:"isDebug"`

	// IsEncrypt seals the file under the machine key on save.
	IsEncrypt bool `yaml:"isEncrypt"`

	// MaxConsecutiveRequest is the purchase loop's initial burst
	// budget: how many order submissions may follow each other with no
	// delay before the loop falls back to paced polling.
	MaxConsecutiveRequest int `yaml:"maxConsecutiveRequest"`

	// RiskedInterval is the cooldown after a rate-limit or
	// congestion signal.
	RiskedInterval int `yaml:"riskedInterval"`

	// RefreshInterval is the delay between stock checks.
	RefreshInterval int `yaml:"refreshInterval"`
}

// RiskedCooldown returns RiskedInterval as a duration.
func (s Setting) RiskedCooldown() time.Duration {
	return time.Duration(s.RiskedInterval) * time.Millisecond
}

// RefreshDelay returns RefreshInterval as a duration.
func (s Setting) RefreshDelay() time.Duration {
	return time.Duration(s.RefreshInterval) * time.Millisecond
}

// Account holds login credentials. Token is nil until a login succeeds.
type Account struct {
	Account  string  `yaml:"account"`
	Password string  `yaml:"password"`
	Token    *string `yaml:"token"`
}

// HasToken reports whether a non-empty token is stored.
func (a Account) HasToken() bool {
	return a.Token != nil && *a.Token != ""
}

// TokenValue returns the token or "".
func (a Account) TokenValue() string {
	if a.Token == nil {
		return ""
	}
	return *a.Token
}

// Buyer is a purchaser registered on the platform.
type Buyer struct {
	ID        int    `yaml:"id"`
	RealName  string `yaml:"realname"`
	IDCard    string `yaml:"idcard"`
	Mobile    string `yaml:"mobile"`
	ValidType int    `yaml:"validType"`
}

// Buyers is the selected purchaser list. Count must equal len(Buyer)
// when a purchase starts.
type Buyers struct {
	Buyer []Buyer `yaml:"buyer"`
	Count int     `yaml:"count"`
}

// IDs returns the purchaser ids in selection order.
func (b Buyers) IDs() []int {
	ids := make([]int, len(b.Buyer))
	for index, buyer := range b.Buyer {
		ids[index] = buyer.ID
	}
	return ids
}

// Names returns the purchasers' real names in selection order.
func (b Buyers) Names() []string {
	names := make([]string, len(b.Buyer))
	for index, buyer := range b.Buyer {
		names[index] = buyer.RealName
	}
	return names
}

// TicketMain identifies the event.
type TicketMain struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// TicketType is the selected tier. Remainder and lock counts are a
// snapshot; the platform is authoritative. Times are Unix milliseconds.
type TicketType struct {
	ID            int    `yaml:"id"`
	Name          string `yaml:"name"`
	Square        string `yaml:"square"`
	Price         int    `yaml:"price"`
	PurchaseNum   int    `yaml:"purchaseNum"`
	RemainderNum  int    `yaml:"remainderNum"`
	LockNum       int    `yaml:"lockNum"`
	RealnameAuth  bool   `yaml:"realnameAuth"`
	SellStartTime int64  `yaml:"sellStartTime"`
	SellEndTime   int64  `yaml:"sellEndTime"`
}

// Payment methods accepted by the order endpoint.
const (
	TicketMethodAli    = "ali"
	TicketMethodWechat = "wx"
)

// Product is the event and tier selection.
type Product struct {
	TicketMain   TicketMain `yaml:"ticketMain"`
	TicketType   TicketType `yaml:"ticketType"`
	TicketMethod string     `yaml:"ticketMethod"`
}

// Selected reports whether both an event and a tier are chosen.
func (p Product) Selected() bool {
	return p.TicketMain.ID != 0 && p.TicketType.ID != 0
}

// Default returns a complete document with every field set to its
// initial value.
func Default() *Config {
	return &Config{
		Setting: Setting{
			IsDebug:               false,
			IsEncrypt:             true,
			MaxConsecutiveRequest: 10,
			RiskedInterval:        60000,
			RefreshInterval:       150,
		},
		Buyer: Buyers{
			Buyer: []Buyer{},
		},
		Notification: DefaultNotification(),
		Product: Product{
			TicketMethod: TicketMethodAli,
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Account.Token != nil {
		token := *c.Account.Token
		clone.Account.Token = &token
	}
	clone.Buyer.Buyer = slices.Clone(c.Buyer.Buyer)
	clone.Notification = c.Notification.clone()
	return &clone
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.Setting.MaxConsecutiveRequest < 1 {
		errs = append(errs, fmt.Errorf("setting.maxConsecutiveRequest must be at least 1, got %d", c.Setting.MaxConsecutiveRequest))
	}
	if c.Setting.RiskedInterval < 0 {
		errs = append(errs, fmt.Errorf("setting.riskedInterval must not be negative, got %d", c.Setting.RiskedInterval))
	}
	if c.Setting.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("setting.refreshInterval must not be negative, got %d", c.Setting.RefreshInterval))
	}

	if c.Buyer.Count < 0 {
		errs = append(errs, fmt.Errorf("buyer.count must not be negative, got %d", c.Buyer.Count))
	}

	switch c.Product.TicketMethod {
	case TicketMethodAli, TicketMethodWechat:
	default:
		errs = append(errs, fmt.Errorf("product.ticketMethod must be %q or %q, got %q",
			TicketMethodAli, TicketMethodWechat, c.Product.TicketMethod))
	}

	errs = append(errs, c.Notification.validate()...)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ResolveDataDir picks the data directory: the flag value, then
// $CPPTICKETER_DATA_DIR, then the working directory.
func ResolveDataDir(flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	if env := os.Getenv(DataDirEnv); env != "" {
		return filepath.Abs(env)
	}
	return os.Getwd()
}

// PathFor returns the config file path under a data directory.
func PathFor(dataDir string) string {
	return filepath.Join(dataDir, "config", "config.yaml")
}
