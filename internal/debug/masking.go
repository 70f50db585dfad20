// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package debug

import (
	"net/url"
	"strings"

	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/wire"
)

// SensitiveKeys contains property names that trigger masking when a payload
// is printed or traced
var SensitiveKeys = []string{
	"password", "passwd", "pwd", "secret",
	"token", "api_key", "apikey", "api-key",
	"credential", "iban", "cardnumber", "loyaltycard",
}

// urlKeys carry service links that may hold credentials in their query
var urlKeys = []string{"uri", "id", constants.ODataID, constants.ODataNextLink, constants.V2Next}

// MaskToken masks a token, showing only the last 8 characters
// For tokens of 8 characters or less, returns "****"
func MaskToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-8:]
}

// MaskValue masks a sensitive value, showing only the last N characters
func MaskValue(value string, showLastChars int) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= showLastChars {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-showLastChars) + value[len(value)-showLastChars:]
}

// MaskURL removes credentials from a service link
// - Masks password in userinfo (user:password@host)
// - Masks sensitive query parameters
func MaskURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.User == nil && parsed.RawQuery == "") {
		return rawURL
	}

	if parsed.User != nil {
		if _, hasPass := parsed.User.Password(); hasPass {
			parsed.User = url.UserPassword(parsed.User.Username(), "***")
		}
	}

	query := parsed.Query()
	modified := false
	for key := range query {
		if IsSensitiveKey(key) {
			query.Set(key, "***")
			modified = true
		}
	}
	if modified {
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// MaskPayload returns a copy of a wire tree in which the values of sensitive
// properties are masked and service links lose their credentials. The input
// is not modified.
func MaskPayload(v any) any {
	out := wire.Clone(v)
	switch n := out.(type) {
	case wire.Object:
		wire.Walk(n, maskObject)
	case wire.Array:
		for _, item := range n {
			if obj, ok := item.(wire.Object); ok {
				wire.Walk(obj, maskObject)
			}
		}
	}
	return out
}

func maskObject(obj wire.Object) {
	for key, value := range obj {
		s, ok := value.(string)
		if !ok {
			continue
		}
		switch {
		case IsSensitiveKey(key):
			obj[key] = MaskToken(s)
		case isURLKey(key):
			obj[key] = MaskURL(s)
		}
	}
}

func isURLKey(key string) bool {
	for _, k := range urlKeys {
		if key == k {
			return true
		}
	}
	return false
}

// IsSensitiveKey checks if a property name indicates sensitive data
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, sensitive := range SensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	return false
}
