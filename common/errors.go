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
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// PanicIfErr panics if err is non-nil. Used at startup and during log-file
// open, where a failure here means the process cannot usefully continue.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// ErrorKind classifies an error the way the Transfer Engine and Discovery
// Pipeline decide what to do about it: retry, defer, fail the job, or abort
// the whole run.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindRemoteFlowControl
	KindTransportError
	KindResourceExhausted
	KindIntegrityFailure
	KindStoreUnavailable
	KindFilesystemError
	KindConfigurationError
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemoteFlowControl:
		return "RemoteFlowControl"
	case KindTransportError:
		return "TransportError"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindIntegrityFailure:
		return "IntegrityFailure"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindFilesystemError:
		return "FilesystemError"
	case KindConfigurationError:
		return "ConfigurationError"
	default:
		return "Unknown"
	}
}

// KindedError wraps an underlying error with the classification that drives
// the Transfer Engine's retry/defer/fail decision.
type KindedError struct {
	Kind       ErrorKind
	RetryAfter time.Duration // only meaningful for KindRemoteFlowControl
	cause      error
}

func (e *KindedError) Error() string {
	if e.Kind == KindRemoteFlowControl {
		return fmt.Sprintf("%s: retry after %s: %v", e.Kind, e.RetryAfter, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *KindedError) Unwrap() error { return e.cause }

func NewRemoteFlowControlError(retryAfter time.Duration, cause error) error {
	return &KindedError{Kind: KindRemoteFlowControl, RetryAfter: retryAfter, cause: errors.WithStack(cause)}
}

func NewTransportError(cause error) error {
	return &KindedError{Kind: KindTransportError, cause: errors.WithStack(cause)}
}

func NewResourceExhaustedError(cause error) error {
	return &KindedError{Kind: KindResourceExhausted, cause: errors.WithStack(cause)}
}

func NewIntegrityFailureError(cause error) error {
	return &KindedError{Kind: KindIntegrityFailure, cause: errors.WithStack(cause)}
}

func NewStoreUnavailableError(cause error) error {
	return &KindedError{Kind: KindStoreUnavailable, cause: errors.WithStack(cause)}
}

func NewFilesystemError(cause error) error {
	return &KindedError{Kind: KindFilesystemError, cause: errors.WithStack(cause)}
}

func NewConfigurationError(cause error) error {
	return &KindedError{Kind: KindConfigurationError, cause: errors.WithStack(cause)}
}

// ClassifyError returns the error's Kind, or KindUnknown if it was not
// raised through one of the New*Error constructors above.
func ClassifyError(err error) ErrorKind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// RetryAfter extracts the server-advised backoff from a RemoteFlowControl
// error, returning false if err isn't one.
func RetryAfter(err error) (time.Duration, bool) {
	var ke *KindedError
	if errors.As(err, &ke) && ke.Kind == KindRemoteFlowControl {
		return ke.RetryAfter, true
	}
	return 0, false
}
