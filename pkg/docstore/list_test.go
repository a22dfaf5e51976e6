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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFolderNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"t1", "t2", "t3"} {
		require.NoError(t, s.Save([]byte(name), Key{Name: name, Folder: "timeline"}))
		// keep birth times apart on filesystems with coarse timestamps
		time.Sleep(50 * time.Millisecond)
	}

	blobs, err := s.ListFolder("timeline")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("t3"), []byte("t2"), []byte("t1")}, blobs)
}

func TestEntriesOrderIsTotal(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	created := map[string]time.Time{
		"old":      base,
		"new":      base.Add(2 * time.Hour),
		"tie-b":    base.Add(time.Hour),
		"tie-a":    base.Add(time.Hour),
		"unknown":  {},
		"unknown2": {},
	}

	orig := creationTime
	creationTime = func(_ string, fi os.FileInfo) time.Time { return created[fi.Name()] }
	t.Cleanup(func() { creationTime = orig })

	s := newTestStore(t)
	for name := range created {
		require.NoError(t, s.Save([]byte(name), Key{Name: name, Folder: "mixed"}))
	}

	entries, err := s.Entries("mixed")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		assert.Equal(t, "mixed", e.Folder)
		assert.Equal(t, int64(len(e.Name)), e.Size)
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old", "unknown", "unknown2"}, names)
}

func TestEntriesSkipsSubdirectories(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save([]byte("top"), Key{Name: "a"}))
	require.NoError(t, s.Save([]byte("inner"), Key{Name: "b", Folder: "sub"}))

	entries, err := s.Entries("")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, Key{Name: "a"}, entries[0].Key())
}

func TestListFolderMissing(t *testing.T) {
	s := newTestStore(t)

	blobs, err := s.ListFolder("neverUsed")
	require.NoError(t, err)
	assert.NotNil(t, blobs)
	assert.Empty(t, blobs)

	info, err := os.Stat(filepath.Join(s.Root(), "neverUsed"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListFolderNamingBlob(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save([]byte("plain"), Key{Name: "report"}))

	blobs, err := s.ListFolder("report")
	require.NoError(t, err)
	assert.NotNil(t, blobs)
	assert.Empty(t, blobs)

	got, err := s.Get(Key{Name: "report"})
	require.NoError(t, err)
	assert.Equal(t, "plain", string(got))
}

func TestListFolderSkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	s := newTestStore(t)
	require.NoError(t, s.Save([]byte("ok"), Key{Name: "readable", Folder: "f"}))
	require.NoError(t, s.Save([]byte("no"), Key{Name: "locked", Folder: "f"}))
	require.NoError(t, os.Chmod(filepath.Join(s.Root(), "f", "locked"), 0))

	blobs, err := s.ListFolder("f")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("ok")}, blobs)
}

func TestDebugListAll(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save([]byte("1"), Key{Name: "root", Extension: ".txt"}))
	require.NoError(t, s.Save([]byte("2"), Key{Name: "a", Folder: "exports"}))
	require.NoError(t, s.Save([]byte("3"), Key{Name: "b", Folder: "exports"}))

	var buf bytes.Buffer
	n, err := s.DebugListAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	out := buf.String()
	for _, want := range []string{"exports/", "exports/a", "exports/b", "root.txt"} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "---- total files ---- 4\n"))
}

func TestDebugListAllEmpty(t *testing.T) {
	s := newTestStore(t)

	var buf bytes.Buffer
	n, err := s.DebugListAll(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), "---- total files ---- 0")
}
