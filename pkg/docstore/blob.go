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
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5/util"
)

// Save writes data as a new blob. An existing blob is never replaced: Save
// leaves it untouched and returns an error matching ErrAlreadyExists.
func (s *Store) Save(data []byte, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	path := s.resolve(key, true)

	if _, err := s.fs.Stat(path); err == nil {
		s.log.Warn().Str("key", key.String()).Msg("blob already present, write skipped")
		return fmt.Errorf("could not save %s: %w", key, ErrAlreadyExists)
	}

	w, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if errors.Is(err, fs.ErrExist) {
		s.log.Warn().Str("key", key.String()).Msg("blob already present, write skipped")
		return fmt.Errorf("could not save %s: %w", key, ErrAlreadyExists)
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key.String()).Msg("could not create blob")
		return fmt.Errorf("could not create %s: %w", key, err)
	}

	_, err = w.Write(data)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// drop the partial file so the key stays writable
		_ = s.fs.Remove(path)
		s.log.Error().Err(err).Str("key", key.String()).Msg("could not write blob")
		return fmt.Errorf("could not write %s: %w", key, err)
	}

	s.log.Debug().Str("key", key.String()).Int("size", len(data)).Msg("saved blob")
	return nil
}

// Get returns the full content of the blob. A missing blob yields an error
// matching both ErrNotFound and fs.ErrNotExist.
func (s *Store) Get(key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	data, err := util.ReadFile(s.fs, s.lookup(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not read %s: %w: %w", key, ErrNotFound, err)
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key.String()).Msg("could not read blob")
		return nil, fmt.Errorf("could not read %s: %w", key, err)
	}

	return data, nil
}

// Delete removes the blob and reports whether it existed. Deleting a missing
// blob is not an error.
func (s *Store) Delete(key Key) (bool, error) {
	if err := key.validate(); err != nil {
		return false, err
	}
	path := s.lookup(key)

	fi, err := s.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug().Str("key", key.String()).Msg("nothing to delete")
		return false, nil
	}
	if err == nil && fi.IsDir() {
		// folders are never removed through a blob key
		s.log.Warn().Str("key", key.String()).Msg("key names a folder, nothing deleted")
		return false, nil
	}

	if err := s.fs.Remove(path); err != nil {
		s.log.Error().Err(err).Str("key", key.String()).Msg("could not delete blob")
		return false, fmt.Errorf("could not delete %s: %w", key, err)
	}

	return true, nil
}
