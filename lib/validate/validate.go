// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package validate checks user input before it is sent to the platform
// or stored.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// MinPasswordLength is the shortest password the platform accepts.
const MinPasswordLength = 6

// Phone reports whether s is a mainland mobile number.
func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Password reports whether s is at least MinPasswordLength bytes.
func Password(s string) bool {
	return len(s) >= MinPasswordLength
}

// Account accepts a phone number or an email address.
func Account(s string) bool {
	return Phone(s) || Email(s)
}

// NotEmpty returns an error naming field when value is blank.
func NotEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s不能为空", field)
	}
	return nil
}

// Host accepts a bare host name or address without scheme, port, or
// path, as the push channel settings expect.
func Host(s string) bool {
	if s == "" || strings.ContainsAny(s, "/:@ ") {
		return false
	}
	parsed, err := url.Parse("//" + s)
	return err == nil && parsed.Host == s
}

// Port reports whether n is a TCP port number.
func Port(n int) bool {
	return n > 0 && n < 65536
}
