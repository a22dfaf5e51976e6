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

// Package docstore keeps opaque blobs as plain files under a root directory,
// optionally grouped into one level of named folders.
package docstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

type Store struct {
	root        string
	fs          billy.Filesystem
	log         zerolog.Logger
	lazyFolders bool
}

type Option func(*Store)

// WithLogger sets the logger failures are reported to. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithFilesystem replaces the OS filesystem rooted at root, mostly for tests.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLazyFolders stops lookups (Get, Delete, Entries, ListFolder) from
// creating the folder they reference. Save always creates it.
func WithLazyFolders() Option {
	return func(s *Store) {
		s.lazyFolders = true
	}
}

// New returns a store rooted at root, creating the directory if needed.
// An empty root means the user documents directory.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		dir, err := DocumentsDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine documents directory: %w", err)
		}
		root = dir
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not resolve root %s: %w", root, err)
	}

	s := &Store{
		root: abs,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.fs == nil {
		if err := os.MkdirAll(abs, dirMode); err != nil {
			return nil, fmt.Errorf("could not create root %s: %w", abs, err)
		}
		s.fs = osfs.New(abs, osfs.WithBoundOS())
	}

	return s, nil
}

var (
	defaultOnce  sync.Once
	defaultStore *Store
	defaultErr   error
)

// Default returns the process-wide store rooted at the documents directory.
func Default() (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = New("", WithLogger(log.Logger))
	})
	return defaultStore, defaultErr
}

func (s *Store) Root() string {
	return s.root
}

// Resolve returns the absolute path of the blob identified by key. The key's
// folder is created when it does not exist yet.
func (s *Store) Resolve(key Key) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}
	return filepath.Join(s.root, s.resolve(key, true)), nil
}

// resolve maps key to a path relative to the root. A failure to create the
// folder is only logged: the data operation on the returned path reports it.
func (s *Store) resolve(key Key, create bool) string {
	if key.Folder == "" {
		return key.Filename()
	}
	s.ensureFolder(key.Folder, create)
	return s.fs.Join(key.Folder, key.Filename())
}

func (s *Store) ensureFolder(folder string, create bool) {
	if folder == "" || !create {
		return
	}

	_, err := s.fs.Stat(folder)
	if err == nil {
		return
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn().Err(err).Str("folder", folder).Msg("could not stat folder")
		return
	}

	if err := s.fs.MkdirAll(folder, dirMode); err != nil {
		s.log.Warn().Err(err).Str("folder", folder).Msg("could not create folder")
	}
}

// lookup is resolve for read-side operations, which honor WithLazyFolders.
func (s *Store) lookup(key Key) string {
	return s.resolve(key, !s.lazyFolders)
}

// osPath returns the host path of rel, or "" when the store is not backed by
// the OS filesystem.
func (s *Store) osPath(rel string) string {
	if s.fs.Root() != s.root {
		return ""
	}
	return filepath.Join(s.root, rel)
}
