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

package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rocky-linux/docstore/internal/blob"
	"github.com/rocky-linux/docstore/internal/blob/file"
	"github.com/rocky-linux/docstore/internal/blob/gcs"
	"github.com/rocky-linux/docstore/internal/blob/s3"
	"github.com/rocky-linux/docstore/internal/mirror"
	"github.com/rocky-linux/docstore/pkg/docstore"
	"github.com/spf13/cobra"
)

var (
	mirrorTarget string
	mirrorPrefix string
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy a folder to or from file://, s3:// or gs:// storage",
}

var mirrorPush = &cobra.Command{
	Use:   "push FOLDER",
	Short: "Upload the blobs of a folder that the target does not have yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMirror(cmd, args[0], mirror.Push)
	},
}

var mirrorPull = &cobra.Command{
	Use:   "pull FOLDER",
	Short: "Download the blobs of a folder that are missing locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMirror(cmd, args[0], mirror.Pull)
	},
}

func init() {
	mirrorCmd.PersistentFlags().StringVar(&mirrorTarget, "target", "", "Storage location, e.g. file:///mnt/backup, s3://bucket or gs://bucket")
	_ = mirrorCmd.MarkPersistentFlagRequired("target")
	mirrorCmd.PersistentFlags().StringVar(&mirrorPrefix, "prefix", "", "Path prefix inside the target (default from config)")

	mirrorCmd.AddCommand(mirrorPush, mirrorPull)
	root.AddCommand(mirrorCmd)
}

type mirrorFunc func(context.Context, *docstore.Store, string, blob.Storage, mirror.Options) (mirror.Result, error)

func runMirror(cmd *cobra.Command, folder string, fn mirrorFunc) error {
	ctx := cmd.Context()
	storage, err := openStorage(ctx, mirrorTarget)
	if err != nil {
		return err
	}

	prefix := cfg.Mirror.Prefix
	if mirrorPrefix != "" {
		prefix = mirrorPrefix
	}

	res, err := fn(ctx, store, folder, storage, mirror.Options{
		Prefix:      prefix,
		Concurrency: cfg.Mirror.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("folder", folder).
		Str("target", mirrorTarget).
		Int("written", res.Written).
		Int("skipped", res.Skipped).
		Msg(cmd.Name() + " finished")
	return nil
}

func openStorage(ctx context.Context, target string) (blob.Storage, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}

	switch u.Scheme {
	case "file":
		return file.New(u.Path), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("target %q has no bucket", target)
		}
		return s3.New(u.Host)
	case "gs":
		if u.Host == "" {
			return nil, fmt.Errorf("target %q has no bucket", target)
		}
		return gcs.New(ctx, u.Host)
	default:
		return nil, fmt.Errorf("unsupported target scheme %q, want one of file, s3, gs", strings.TrimSuffix(u.Scheme, ":"))
	}
}
