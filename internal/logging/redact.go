// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package logging

import "strings"

// sensitiveKeys are field names whose values are always masked.
var sensitiveKeys = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"token":         true,
	"client_secret": true,
	"secret":        true,
	"authorization": true,
	"code":          true,
}

// MaskSecret keeps the first and last four characters of s.
// Values of 12 characters or fewer are fully masked.
//
//	MaskSecret("eyJhbGciOiJSUzI1NiJ9.payload") // "eyJh...load"
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// MaskValue masks value when key names a credential field.
func MaskValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return MaskSecret(value)
	}
	return value
}

// Truncate shortens s to at most n bytes, appending "..." when cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
