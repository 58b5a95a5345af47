// Copyright © 2025 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package common

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameLength = 255

var (
	reservedCharacters = regexp.MustCompile(`[<>:"/\\|?*]`)
	repeatedDots        = regexp.MustCompile(`\.{2,}`)
	repeatedUnderscores = regexp.MustCompile(`_{2,}`)
	repeatedWhitespace  = regexp.MustCompile(`\s{2,}`)
)

var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFilename applies the target-filename derivation rules in order:
// strip emoji/zero-width/bidi controls, strip other control characters,
// replace filesystem-reserved characters, collapse repeated separators,
// trim edges, guard reserved device names, and truncate to fit within
// maxFilenameLength while preserving the extension.
func SanitizeFilename(raw string) string {
	s := norm.NFC.String(raw)
	s = stripEmojiAndBidiControls(s)
	s = stripControlCharacters(s)
	s = reservedCharacters.ReplaceAllString(s, "_")
	s = repeatedDots.ReplaceAllString(s, ".")
	s = repeatedWhitespace.ReplaceAllString(s, " ")
	s = repeatedUnderscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, " .")

	s = guardReservedDeviceName(s)
	return truncatePreservingExtension(s, maxFilenameLength)
}

func stripEmojiAndBidiControls(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF: // emoji & pictographs
		case r >= 0x2600 && r <= 0x27BF: // misc symbols & dingbats
		case r == 0x200B || r == 0x200C || r == 0x200D || r == 0xFEFF: // zero-width
		case r >= 0x202A && r <= 0x202E: // bidi embedding/override controls
		case r == 0x200E || r == 0x200F: // bidi marks
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripControlCharacters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func guardReservedDeviceName(s string) string {
	ext := filepath.Ext(s)
	stem := strings.TrimSuffix(s, ext)
	if reservedDeviceNames[strings.ToUpper(stem)] {
		return "_" + s
	}
	return s
}

func truncatePreservingExtension(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	ext := filepath.Ext(s)
	stem := strings.TrimSuffix(s, ext)
	keep := maxLen - len(ext)
	if keep < 1 {
		return s[:maxLen]
	}
	return stem[:keep] + ext
}

// ResolveCollision returns a name guaranteed not to exist under dir: either
// candidate itself, or candidate with the smallest "_N" suffix (N >= 1)
// that is free, inserted before the extension.
func ResolveCollision(dir, candidate string) (string, error) {
	path := filepath.Join(dir, candidate)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", err
	}

	ext := filepath.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)

	for n := 1; ; n++ {
		next := stem + "_" + strconv.Itoa(n) + ext
		path = filepath.Join(dir, next)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return next, nil
		} else if err != nil {
			return "", err
		}
	}
}
