// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package stringutil provides small string helpers for rendering listing data.
package stringutil

import (
	"strconv"
	"strings"
)

// Ellipsis shortens s to at most maxLength runes, appending "..." when it
// truncates. Surrounding whitespace is trimmed and line breaks are folded
// into spaces. With maxLength <= 3 the string is cut without an ellipsis.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if maxLength < 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}

// UnescapeProcessName decodes the \xHH escapes lsof uses for unprintable
// bytes and spaces in command names, e.g. `Code\x20H` becomes "Code H".
// Malformed escapes are kept verbatim.
func UnescapeProcessName(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
