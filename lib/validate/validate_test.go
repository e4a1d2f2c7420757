// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import "testing"

func TestPhone(t *testing.T) {
	valid := []string{"13800138000", "19912345678", "15000000000"}
	invalid := []string{"", "12800138000", "1380013800", "138001380000", "2380013800a", "1380013800a"}
	for _, s := range valid {
		if !Phone(s) {
			t.Errorf("Phone(%q) = false", s)
		}
	}
	for _, s := range invalid {
		if Phone(s) {
			t.Errorf("Phone(%q) = true", s)
		}
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"a@example.com", "first.last+tag@mail.example.cn"}
	invalid := []string{"", "a@b", "no-at.example.com", "a@example.c"}
	for _, s := range valid {
		if !Email(s) {
			t.Errorf("Email(%q) = false", s)
		}
	}
	for _, s := range invalid {
		if Email(s) {
			t.Errorf("Email(%q) = true", s)
		}
	}
}

func TestPasswordAndAccount(t *testing.T) {
	if Password("12345") || !Password("123456") {
		t.Error("Password boundary wrong")
	}
	if !Account("13800138000") || !Account("u@example.com") || Account("someone") {
		t.Error("Account accepts the wrong inputs")
	}
}

func TestNotEmpty(t *testing.T) {
	if err := NotEmpty("账号", "  "); err == nil || err.Error() != "账号不能为空" {
		t.Errorf("NotEmpty(blank) = %v", err)
	}
	if err := NotEmpty("账号", "x"); err != nil {
		t.Errorf("NotEmpty(x) = %v", err)
	}
}

func TestHostAndPort(t *testing.T) {
	for _, host := range []string{"gotify.example.com", "192.168.1.5", "localhost"} {
		if !Host(host) {
			t.Errorf("Host(%q) = false", host)
		}
	}
	for _, host := range []string{"", "https://x.com", "x.com:80", "x.com/path", "a b"} {
		if Host(host) {
			t.Errorf("Host(%q) = true", host)
		}
	}
	if Port(0) || !Port(443) || Port(70000) {
		t.Error("Port boundary wrong")
	}
}
