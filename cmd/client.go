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

package cmd

import (
	"github.com/pkg/errors"

	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/remote"
)

// NewRemoteClient builds the remote.Client this binary talks to. The chat
// platform's wire protocol is out of scope for this engine (see
// remote.Client's doc comment): a deployment links in its own
// implementation and replaces this variable during init, the same way
// credential resolution is pluggable rather than hardwired to one cloud.
var NewRemoteClient = func(apiID, apiHash, sessionName string) (remote.Client, error) {
	return nil, common.NewConfigurationError(
		errors.New("no remote client configured: set cmd.NewRemoteClient before calling Execute"))
}
