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

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rocky-linux/docstore/internal/blob"
)

type GCS struct {
	name   string
	bucket *storage.BucketHandle
}

func New(ctx context.Context, name string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create gcloud client: %w", err)
	}

	return &GCS{
		name:   name,
		bucket: client.Bucket(name),
	}, nil
}

func (g *GCS) Write(ctx context.Context, path string, content []byte) error {
	w := g.bucket.Object(path).NewWriter(ctx)

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return fmt.Errorf("could not write file to gcs: %w", err)
	}

	// the object is only committed on Close
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not close gcs writer: %w", err)
	}
	return nil
}

func (g *GCS) Read(ctx context.Context, path string) ([]byte, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", g.name, path, blob.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open gcs object: %w", err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read gcs object: %w", err)
	}
	return body, nil
}

func (g *GCS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.bucket.Object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not stat gcs object: %w", err)
	}
	return true, nil
}
