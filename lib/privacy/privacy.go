// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package privacy masks personal data before it reaches the terminal,
// logs, or a notification channel.
package privacy

import "strings"

// MaskPhone hides the middle four characters of an 11-character
// mobile number: 13812345678 becomes 138****5678. Any other length is
// returned unchanged. Lengths count characters, not bytes.
func MaskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) != 11 {
		return phone
	}
	return string(runes[:3]) + "****" + string(runes[7:])
}

// MaskIDCard keeps the first and last four characters of an identity
// number. Inputs shorter than eight characters are returned unchanged.
func MaskIDCard(idcard string) string {
	runes := []rune(idcard)
	if len(runes) < 8 {
		return idcard
	}
	return string(runes[:4]) + strings.Repeat("*", len(runes)-8) + string(runes[len(runes)-4:])
}

// MaskToken keeps the first and last four characters of a token.
// Anything shorter than eight characters masks to "****".
func MaskToken(token string) string {
	runes := []rune(token)
	if len(runes) < 8 {
		return "****"
	}
	return string(runes[:4]) + "****" + string(runes[len(runes)-4:])
}

// MaskName keeps the first character of a name and stars the rest.
func MaskName(name string) string {
	runes := []rune(name)
	if len(runes) <= 1 {
		return name
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}
