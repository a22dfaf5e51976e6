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

// Package mirror copies the blobs of one store folder to and from a
// blob.Storage target.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/rocky-linux/docstore/internal/blob"
	"github.com/rocky-linux/docstore/pkg/docstore"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Prefix is prepended to every remote path.
	Prefix      string
	Concurrency int
	Logger      zerolog.Logger
}

type Result struct {
	Written int
	Skipped int
}

func (o Options) limit() int {
	if o.Concurrency < 1 {
		return 1
	}
	return o.Concurrency
}

func remotePath(opts Options, folder, name string) string {
	return path.Join(opts.Prefix, folder, name)
}

// Push copies every blob of folder to dst. Blobs already present remotely
// are left alone and keep the checksum recorded for them. The remote manifest
// is merged with this push's entries and written back.
func Push(ctx context.Context, store *docstore.Store, folder string, dst blob.Storage, opts Options) (Result, error) {
	entries, err := store.Entries(folder)
	if err != nil {
		return Result{}, err
	}

	manPath := remotePath(opts, folder, ManifestName)
	man, err := readManifest(ctx, dst, manPath)
	if err != nil {
		return Result{}, err
	}

	var (
		mu  sync.Mutex
		res Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for _, e := range entries {
		if e.Name == ManifestName {
			continue
		}
		e := e
		g.Go(func() error {
			target := remotePath(opts, folder, e.Name)
			exists, err := dst.Exists(gctx, target)
			if err != nil {
				return fmt.Errorf("could not check %s: %w", target, err)
			}

			if exists {
				mu.Lock()
				_, recorded := man[e.Name]
				mu.Unlock()

				if !recorded {
					remote, err := dst.Read(gctx, target)
					if err != nil {
						return fmt.Errorf("could not read %s: %w", target, err)
					}
					mu.Lock()
					man[e.Name] = checksum(remote)
					mu.Unlock()
				}

				opts.Logger.Debug().Str("path", target).Msg("blob already in storage")
				mu.Lock()
				res.Skipped++
				mu.Unlock()
				return nil
			}

			content, err := store.Get(e.Key())
			if errors.Is(err, docstore.ErrNotFound) {
				// deleted since listing
				return nil
			}
			if err != nil {
				return err
			}

			if err := dst.Write(gctx, target, content); err != nil {
				return fmt.Errorf("could not push %s: %w", target, err)
			}
			opts.Logger.Info().Str("path", target).Msg("wrote blob to storage")

			mu.Lock()
			defer mu.Unlock()
			man[e.Name] = checksum(content)
			res.Written++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	if err := dst.Write(ctx, manPath, man.encode()); err != nil {
		return res, fmt.Errorf("could not write manifest: %w", err)
	}
	return res, nil
}

// readManifest returns the manifest stored at p, or an empty one when there
// is none yet.
func readManifest(ctx context.Context, src blob.Storage, p string) (manifest, error) {
	raw, err := src.Read(ctx, p)
	if errors.Is(err, blob.ErrNotFound) {
		return manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read manifest: %w", err)
	}
	man, err := parseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse manifest: %w", err)
	}
	return man, nil
}

// Pull saves every blob listed in the remote manifest of folder into store.
// Local blobs are never replaced; content that does not match its checksum
// fails the pull.
func Pull(ctx context.Context, store *docstore.Store, folder string, src blob.Storage, opts Options) (Result, error) {
	raw, err := src.Read(ctx, remotePath(opts, folder, ManifestName))
	if err != nil {
		return Result{}, fmt.Errorf("could not read manifest: %w", err)
	}
	man, err := parseManifest(raw)
	if err != nil {
		return Result{}, fmt.Errorf("could not parse manifest: %w", err)
	}

	var (
		mu  sync.Mutex
		res Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for name, sum := range man {
		name, sum := name, sum
		g.Go(func() error {
			key := docstore.Key{Name: name, Folder: folder}
			target := remotePath(opts, folder, name)

			content, err := src.Read(gctx, target)
			if err != nil {
				return fmt.Errorf("could not pull %s: %w", target, err)
			}
			if err := verify(content, sum); err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}

			err = store.Save(content, key)
			skipped := errors.Is(err, docstore.ErrAlreadyExists)
			if err != nil && !skipped {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if skipped {
				res.Skipped++
			} else {
				res.Written++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}
