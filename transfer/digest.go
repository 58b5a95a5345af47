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

package transfer

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrDigestMismatch is returned by digestVerifier.Check when a completed
// file's content digest doesn't match what was expected.
var ErrDigestMismatch = errors.New("content digest mismatch")

// digestVerifier computes and checks the MD5 content digest of a completed
// file. Digest choice is fixed to MD5 per the persisted-digest decision
// recorded in DESIGN.md.
type digestVerifier struct{}

// computeDigest returns the lowercase-hex MD5 of the file at path.
func (digestVerifier) computeDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Check computes path's digest and compares it against expected, returning
// ErrDigestMismatch (wrapped with the computed value) if they differ.
func (v digestVerifier) Check(path, expected string) (string, error) {
	actual, err := v.computeDigest(path)
	if err != nil {
		return "", err
	}
	if expected != "" && actual != expected {
		return actual, errors.Wrapf(ErrDigestMismatch, "expected %s, got %s", expected, actual)
	}
	return actual, nil
}
