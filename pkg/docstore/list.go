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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5/util"
)

// Entry describes a blob found by Entries.
type Entry struct {
	Name    string    `yaml:"name"`
	Folder  string    `yaml:"folder,omitempty"`
	Size    int64     `yaml:"size"`
	Created time.Time `yaml:"created"`
}

func (e Entry) Key() Key {
	return Key{Name: e.Name, Folder: e.Folder}
}

// Entries lists the blobs directly inside folder, newest first. Sub-directories
// are not descended into. A missing folder yields no entries.
func (s *Store) Entries(folder string) ([]Entry, error) {
	if folder != "" {
		if err := validateSegment("folder", folder); err != nil {
			return nil, err
		}
		s.ensureFolder(folder, !s.lazyFolders)

		if fi, err := s.fs.Stat(folder); err == nil && !fi.IsDir() {
			s.log.Debug().Str("folder", folder).Msg("folder names a blob, nothing to list")
			return []Entry{}, nil
		}
	}

	dir := folder
	if dir == "" {
		dir = "."
	}
	infos, err := s.fs.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("folder", folder).Msg("could not read folder")
		return nil, fmt.Errorf("could not list %s: %w", folder, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name:    fi.Name(),
			Folder:  folder,
			Size:    fi.Size(),
			Created: creationTime(s.osPath(filepath.Join(folder, fi.Name())), fi),
		})
	}

	sortNewestFirst(entries)
	return entries, nil
}

// ListFolder returns the content of every blob directly inside folder, newest
// first. Blobs that cannot be read are left out.
func (s *Store) ListFolder(folder string) ([][]byte, error) {
	entries, err := s.Entries(folder)
	if err != nil {
		return nil, err
	}

	blobs := make([][]byte, 0, len(entries))
	for _, e := range entries {
		data, err := util.ReadFile(s.fs, filepath.Join(folder, e.Name))
		if err != nil {
			s.log.Debug().Err(err).Str("key", e.Key().String()).Msg("skipping unreadable blob")
			continue
		}
		blobs = append(blobs, data)
	}

	return blobs, nil
}

// sortNewestFirst orders by creation time descending, then by name, so the
// order is total even when timestamps collide or are unknown.
func sortNewestFirst(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.Name < b.Name
	})
}

// creationTime prefers the platform birth time and falls back to the
// modification time. path is the host path, empty when there is none.
var creationTime = func(path string, fi os.FileInfo) time.Time {
	if path != "" {
		if t, ok := birthTime(path, fi); ok {
			return t
		}
	}
	return fi.ModTime()
}

// DebugListAll writes every file and directory below the root to w, one per
// line with a running count, followed by the total. It returns the total.
func (s *Store) DebugListAll(w io.Writer) (int, error) {
	count := 0

	err := util.Walk(s.fs, ".", func(rel string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if fi.IsDir() {
			rel += "/"
		}
		count++
		_, err = fmt.Fprintf(w, "%4d  %s\n", count, filepath.ToSlash(rel))
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Msg("could not walk root")
		return count, fmt.Errorf("could not walk %s: %w", s.root, err)
	}

	if _, err := fmt.Fprintf(w, "\n---- total files ---- %d\n", count); err != nil {
		return count, err
	}
	return count, nil
}
