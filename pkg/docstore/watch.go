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
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Event reports a change to a blob inside a watched folder.
type Event struct {
	Key Key
	Op  Op
}

var ErrWatchUnsupported = errors.New("watch requires an OS backed store")

// Watch reports changes to the blobs directly inside folder until ctx is
// done. The watch is active when Watch returns.
func (s *Store) Watch(ctx context.Context, folder string) (<-chan Event, error) {
	if folder != "" {
		if err := validateSegment("folder", folder); err != nil {
			return nil, err
		}
	}
	s.ensureFolder(folder, true)

	dir := s.osPath(folder)
	if dir == "" {
		return nil, ErrWatchUnsupported
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("could not watch %s: %w", dir, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Str("folder", folder).Msg("watch error")
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				op, ok := translateOp(ev.Op)
				if !ok {
					continue
				}
				select {
				case events <- Event{Key: Key{Name: filepath.Base(ev.Name), Folder: folder}, Op: op}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func translateOp(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	}
	return "", false
}
