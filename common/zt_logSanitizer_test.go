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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogSanitizer(t *testing.T) {
	a := assert.New(t)

	san := NewLogSanitizer("topsecrethash", "mysession")

	a.Equal("string with no secrets", san.SanitizeLogMessage("string with no secrets"))
	a.Equal("api_hash=***", san.SanitizeLogMessage("api_hash=topsecrethash"))
	a.Equal("session=*** opened", san.SanitizeLogMessage("session=mysession opened"))
	a.Equal("*** and ***, twice: ***", san.SanitizeLogMessage("topsecrethash and mysession, twice: topsecrethash"))
}

func TestLogSanitizerNoSecrets(t *testing.T) {
	a := assert.New(t)
	san := NewLogSanitizer()
	a.Equal("unchanged", san.SanitizeLogMessage("unchanged"))
}
