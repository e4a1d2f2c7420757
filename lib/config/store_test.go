// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testMachineID = "0123456789abcdef0123456789abcdef"

func openStore(t *testing.T, path, machineID string) *Store {
	t.Helper()
	store, err := Open(Options{Path: path, MachineID: machineID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func configPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "config", "config.yaml")
}

func TestLoadMissingWritesDefaults(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)

	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %v, want 0600", info.Mode().Perm())
	}
	if !reflect.DeepEqual(store.Snapshot(), Default()) {
		t.Error("loaded document differs from defaults")
	}
}

func TestRoundTripPlaintext(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	store.OverrideEncrypt(false)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := store.Update(func(c *Config) error {
		token := "tok-123"
		c.Account = Account{Account: "13800138000", Password: "secret", Token: &token}
		c.Buyer = Buyers{Buyer: []Buyer{{ID: 1, RealName: "张三", IDCard: "110101199001011234", Mobile: "13800138000", ValidType: 0}}, Count: 1}
		c.Product = Product{
			TicketMain:   TicketMain{ID: 3001, Name: "CP30"},
			TicketType:   TicketType{ID: 42, Name: "普通票", Square: "DAY1", Price: 7500, RealnameAuth: true, SellStartTime: 1700000000000, SellEndTime: 1800000000000},
			TicketMethod: TicketMethodWechat,
		}
		c.Setting.RefreshInterval = 300
		c.Notification.IsEnable = true
		c.Notification.Methods = []string{MethodBark, MethodTelegram}
		c.Notification.Bark = BarkChannel{Token: "bark-token", Level: "active"}
		c.Notification.Email.ToAddr = []string{"a@example.com", "b@example.com"}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := store.Snapshot()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "maxConsecutiveRequest: 10") {
		t.Errorf("plaintext file missing setting keys:\n%s", data)
	}
	store.Close()

	reopened := openStore(t, path, testMachineID)
	reopened.OverrideEncrypt(false)
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reopened.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestRoundTripEncrypted(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := store.SetCredentials("user", "pass"); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}
	want := store.Snapshot()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "user") || strings.Contains(string(data), "setting") {
		t.Errorf("encrypted file leaks plaintext:\n%s", data)
	}
	store.Close()

	reopened := openStore(t, path, testMachineID)
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reopened.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("encrypted round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadOnDifferentMachine(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := store.SetCredentials("user", "pass"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	other := openStore(t, path, "another-machine")
	err := other.Load()
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load on another machine = %v, want *LoadError", err)
	}
	if loadErr.Path != path {
		t.Errorf("LoadError.Path = %q, want %q", loadErr.Path, path)
	}
	if got := other.Snapshot(); !reflect.DeepEqual(got, Default()) {
		t.Error("failed load replaced the in-memory document")
	}
}

func TestLoadPlaintextWithEncryptionOn(t *testing.T) {
	path := configPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	plaintext := "account:\n  account: migrated\n"
	if err := os.WriteFile(path, []byte(plaintext), 0o600); err != nil {
		t.Fatal(err)
	}

	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := store.Snapshot().Account.Account; got != "migrated" {
		t.Errorf("account = %q, want migrated", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != plaintext {
		t.Error("Load rewrote the file")
	}
}

func TestLoadKeepsDefaultsAndIgnoresUnknownKeys(t *testing.T) {
	path := configPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	content := "setting:\n  refreshInterval: 500\n  futureKnob: 3\nextra:\n  a: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	store := openStore(t, path, testMachineID)
	store.OverrideEncrypt(false)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	setting := store.Snapshot().Setting
	if setting.RefreshInterval != 500 {
		t.Errorf("refreshInterval = %d, want 500", setting.RefreshInterval)
	}
	if setting.MaxConsecutiveRequest != 10 || setting.RiskedInterval != 60000 {
		t.Errorf("missing fields lost their defaults: %+v", setting)
	}
}

func TestLoadEmptyFileIsDefaults(t *testing.T) {
	path := configPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(store.Snapshot(), Default()) {
		t.Error("empty file did not load as defaults")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := configPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("setting:\n  maxConsecutiveRequest: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := openStore(t, path, testMachineID)
	store.OverrideEncrypt(false)
	var loadErr *LoadError
	if err := store.Load(); !errors.As(err, &loadErr) {
		t.Fatalf("Load = %v, want *LoadError", err)
	}
}

func TestUpdateUnchangedDoesNotWrite(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.SetCredentials("user", "pass"); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Sealed output carries a fresh nonce, so any rewrite changes the
	// file content.
	if err := store.SetCredentials("user", "pass"); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(func(*Config) error { return nil }); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("an unchanged document was written")
	}
}

func TestUpdatePersistsOnce(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	store.OverrideEncrypt(false)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	stamp := time.Unix(1000, 0)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	err := store.Update(func(c *Config) error {
		c.Account.Account = "a"
		c.Account.Password = "b"
		c.Setting.RefreshInterval = 200
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().Equal(stamp) {
		t.Error("changed document was not written")
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "refreshInterval: 200") {
		t.Errorf("written file lacks the update:\n%s", data)
	}
}

func TestUpdateErrorRollsBack(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	boom := errors.New("boom")
	err := store.Update(func(c *Config) error {
		c.Account.Account = "half-written"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update = %v, want boom", err)
	}
	if store.Snapshot().Account.Account != "" {
		t.Error("failed update leaked into memory")
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("failed update touched the file")
	}
}

func TestUpdateRejectsInvalidDocument(t *testing.T) {
	store := openStore(t, configPath(t), testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	err := store.Update(func(c *Config) error {
		c.Setting.MaxConsecutiveRequest = -1
		return nil
	})
	if err == nil {
		t.Fatal("Update accepted an invalid document")
	}
	if store.Snapshot().Setting.MaxConsecutiveRequest != 10 {
		t.Error("invalid update leaked into memory")
	}
}

func TestSetBuyersKeepsCount(t *testing.T) {
	store := openStore(t, configPath(t), testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	buyers := []Buyer{{ID: 1}, {ID: 2}, {ID: 3}}
	if err := store.SetBuyers(buyers); err != nil {
		t.Fatal(err)
	}
	got := store.Snapshot().Buyer
	if got.Count != 3 || len(got.Buyer) != 3 {
		t.Errorf("buyers = %+v, want count 3", got)
	}
	buyers[0].ID = 99
	if store.Snapshot().Buyer.Buyer[0].ID != 1 {
		t.Error("SetBuyers retained the caller's slice")
	}
}

func TestSetTokenClears(t *testing.T) {
	store := openStore(t, configPath(t), testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.SetToken("t1"); err != nil {
		t.Fatal(err)
	}
	if !store.Snapshot().Account.HasToken() {
		t.Fatal("token not stored")
	}
	if err := store.SetToken(""); err != nil {
		t.Fatal(err)
	}
	if store.Snapshot().Account.Token != nil {
		t.Error("empty token did not clear")
	}
}

func TestOverrideEncryptDoesNotSave(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)
	store.OverrideEncrypt(false)
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("OverrideEncrypt wrote the file")
	}
	if store.Snapshot().Setting.IsEncrypt {
		t.Error("override not applied in memory")
	}
}

func TestDebugSettingDrivesLogLevel(t *testing.T) {
	level := new(slog.LevelVar)
	store, err := Open(Options{Path: configPath(t), MachineID: testMachineID, LogLevel: level})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if level.Level() != slog.LevelInfo {
		t.Errorf("level = %v, want info", level.Level())
	}
	err = store.Update(func(c *Config) error {
		c.Setting.IsDebug = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}
}

func TestSaveErrorKeepsMemory(t *testing.T) {
	path := configPath(t)
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	// A directory at the target path makes the rename fail.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o700); err != nil {
		t.Fatal(err)
	}

	err := store.SetCredentials("kept", "pw")
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("SetCredentials = %v, want *SaveError", err)
	}
	if store.Snapshot().Account.Account != "kept" {
		t.Error("in-memory document dropped after a failed save")
	}
}

func TestReset(t *testing.T) {
	path := configPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not: [valid"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := openStore(t, path, testMachineID)
	if err := store.Load(); err == nil {
		t.Fatal("Load accepted a corrupt file")
	}

	backup, err := store.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if backup != path+".bak" {
		t.Errorf("backup = %q", backup)
	}
	data, err := os.ReadFile(backup)
	if err != nil || string(data) != "not: [valid" {
		t.Errorf("backup content = %q, %v", data, err)
	}
	store.Close()

	reopened := openStore(t, path, testMachineID)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load after reset: %v", err)
	}
}

func TestOpenIsExclusive(t *testing.T) {
	path := configPath(t)
	openStore(t, path, testMachineID)
	if _, err := Open(Options{Path: path, MachineID: testMachineID}); err == nil {
		t.Fatal("second Open on the same path succeeded")
	}
}

func TestDigestTracksContent(t *testing.T) {
	store := openStore(t, configPath(t), testMachineID)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	first, err := store.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetCredentials("x", "y"); err != nil {
		t.Fatal(err)
	}
	second, _ := store.Digest()
	if first == second || len(first) != 64 {
		t.Errorf("digests %q and %q", first, second)
	}
}
