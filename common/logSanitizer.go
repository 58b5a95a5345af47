// Copyright © Microsoft <wastore@microsoft.com>
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

import "strings"

// LogSanitizer performs string-replacement based log redaction: every
// configured secret value is replaced with "***", even when it is embedded
// in an error string from a lower layer. NewRunLogger and NewSysLogger build
// theirs with no secrets, so their messages pass through unchanged.
type LogSanitizer interface {
	SanitizeLogMessage(raw string) string
}

type redactingSanitizer struct {
	needles []string
}

// NewLogSanitizer builds a sanitizer that redacts the given secret values.
// With no needles, it is an identity transform.
func NewLogSanitizer(secrets ...string) LogSanitizer {
	needles := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			needles = append(needles, s)
		}
	}
	return &redactingSanitizer{needles: needles}
}

func (s *redactingSanitizer) SanitizeLogMessage(raw string) string {
	out := raw
	for _, needle := range s.needles {
		out = strings.ReplaceAll(out, needle, "***")
	}
	return out
}
