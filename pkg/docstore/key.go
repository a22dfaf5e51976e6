// Copyright (c) 2021 The Srpmproc Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package docstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAlreadyExists = errors.New("blob already exists")
	ErrNotFound      = errors.New("blob not found")
	ErrInvalidKey    = errors.New("invalid key")
)

// Key identifies a blob. The on-disk filename is Name followed by Extension,
// verbatim. Folder names a direct child of the store root; empty means the
// root itself.
type Key struct {
	Name      string
	Extension string
	Folder    string
}

func (k Key) Filename() string {
	return k.Name + k.Extension
}

func (k Key) String() string {
	if k.Folder == "" {
		return k.Filename()
	}
	return k.Folder + "/" + k.Filename()
}

func (k Key) validate() error {
	if k.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidKey)
	}
	if err := validateSegment("filename", k.Filename()); err != nil {
		return err
	}
	if k.Folder != "" {
		return validateSegment("folder", k.Folder)
	}
	return nil
}

// validateSegment makes sure s names exactly one path element, so a resolved
// path never leaves the root or nests folders.
func validateSegment(what, s string) error {
	if s == "." || s == ".." {
		return fmt.Errorf("%w: %s %q is reserved", ErrInvalidKey, what, s)
	}
	if strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: %s %q contains a path separator", ErrInvalidKey, what, s)
	}
	return nil
}
