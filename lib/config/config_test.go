// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Setting.IsDebug {
		t.Error("isDebug should default to false")
	}
	if !c.Setting.IsEncrypt {
		t.Error("isEncrypt should default to true")
	}
	if c.Setting.MaxConsecutiveRequest != 10 {
		t.Errorf("maxConsecutiveRequest = %d, want 10", c.Setting.MaxConsecutiveRequest)
	}
	if c.Setting.RiskedInterval != 60000 {
		t.Errorf("riskedInterval = %d, want 60000", c.Setting.RiskedInterval)
	}
	if c.Setting.RefreshInterval != 150 {
		t.Errorf("refreshInterval = %d, want 150", c.Setting.RefreshInterval)
	}
	if c.Account.Token != nil {
		t.Error("token should default to nil")
	}
	if c.Product.TicketMethod != TicketMethodAli {
		t.Errorf("ticketMethod = %q, want %q", c.Product.TicketMethod, TicketMethodAli)
	}
	if c.Notification.Bark.Level != "passive" {
		t.Errorf("bark.level = %q, want passive", c.Notification.Bark.Level)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := Default()
	token := "abc"
	original.Account.Token = &token
	original.Buyer.Buyer = []Buyer{{ID: 1, RealName: "张三"}}
	original.Notification.Methods = []string{MethodBark}

	clone := original.Clone()
	*clone.Account.Token = "changed"
	clone.Buyer.Buyer[0].RealName = "李四"
	clone.Notification.Methods[0] = MethodGotify
	clone.Notification.DGLab.Pulses[0] = "潮汐"

	if *original.Account.Token != "abc" {
		t.Error("clone shares the token")
	}
	if original.Buyer.Buyer[0].RealName != "张三" {
		t.Error("clone shares the buyer slice")
	}
	if original.Notification.Methods[0] != MethodBark {
		t.Error("clone shares the methods slice")
	}
	if original.Notification.DGLab.Pulses[0] != "呼吸" {
		t.Error("clone shares the pulse slice")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero burst", func(c *Config) { c.Setting.MaxConsecutiveRequest = 0 }, "maxConsecutiveRequest"},
		{"negative risked", func(c *Config) { c.Setting.RiskedInterval = -1 }, "riskedInterval"},
		{"negative refresh", func(c *Config) { c.Setting.RefreshInterval = -5 }, "refreshInterval"},
		{"bad method", func(c *Config) { c.Product.TicketMethod = "card" }, "ticketMethod"},
		{"unknown channel", func(c *Config) { c.Notification.Methods = []string{"pager"} }, "unknown channel"},
		{"duplicate channel", func(c *Config) { c.Notification.Methods = []string{MethodBark, MethodBark} }, "listed twice"},
		{"bark level", func(c *Config) { c.Notification.Bark.Level = "loud" }, "bark.level"},
		{"dglab channel", func(c *Config) { c.Notification.DGLab.Channel = "C" }, "dglab.channel"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := Default()
			test.mutate(c)
			err := c.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, test.wantErr)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	c := Default()
	c.Setting.MaxConsecutiveRequest = 0
	c.Setting.RefreshInterval = -1
	err := c.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	message := err.Error()
	if !strings.Contains(message, "maxConsecutiveRequest") || !strings.Contains(message, "refreshInterval") {
		t.Errorf("Validate() = %v, want both problems reported", err)
	}
}

func TestBuyersHelpers(t *testing.T) {
	buyers := Buyers{Buyer: []Buyer{{ID: 7, RealName: "甲"}, {ID: 9, RealName: "乙"}}, Count: 2}
	ids := buyers.IDs()
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 9 {
		t.Errorf("IDs() = %v", ids)
	}
	names := buyers.Names()
	if strings.Join(names, ",") != "甲,乙" {
		t.Errorf("Names() = %v", names)
	}
}

func TestResolveDataDir(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveDataDir(dir)
	if err != nil || got != dir {
		t.Errorf("ResolveDataDir(flag) = %q, %v", got, err)
	}

	env := filepath.Join(dir, "env")
	t.Setenv(DataDirEnv, env)
	got, err = ResolveDataDir("")
	if err != nil || got != env {
		t.Errorf("ResolveDataDir(env) = %q, %v; want %q", got, err, env)
	}

	if PathFor(dir) != filepath.Join(dir, "config", "config.yaml") {
		t.Errorf("PathFor = %q", PathFor(dir))
	}
}
