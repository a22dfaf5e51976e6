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
	"fmt"
	"os"

	"github.com/rocky-linux/docstore/internal/config"
	"github.com/rocky-linux/docstore/internal/logging"
	"github.com/rocky-linux/docstore/pkg/docstore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string

	v      = config.New()
	cfg    config.Config
	logger zerolog.Logger
	store  *docstore.Store
)

var root = &cobra.Command{
	Use:               "docstore",
	Short:             "Keep blobs as plain files under a documents directory",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, _ []string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	var err error
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	logCfg.Format = cfg.Log.Format
	logger = logging.New(logCfg)

	opts := []docstore.Option{docstore.WithLogger(logger)}
	if cfg.LazyFolders {
		opts = append(opts, docstore.WithLazyFolders())
	}
	store, err = docstore.New(cfg.Root, opts...)
	if err != nil {
		return err
	}

	logger.Debug().Str("root", store.Root()).Str("command", cmd.Name()).Msg("store ready")
	return nil
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, root.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("could not bind flag %s: %v", flag, err))
	}
}

func init() {
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a docstore.yaml config file")
	root.PersistentFlags().String("root", "", "Base directory (default $XDG_DOCUMENTS_DIR or ~/Documents)")
	root.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	root.PersistentFlags().String("log-format", "console", "Log format: console or json")
	root.PersistentFlags().Bool("lazy-folders", false, "Do not create folders on lookups")

	bindFlag("root", "root")
	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
	bindFlag("lazy_folders", "lazy-folders")
}

func main() {
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// keyFlags registers the flags shared by commands addressing a single blob.
type keyFlags struct {
	ext    string
	folder string
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.ext, "ext", "", "Extension appended verbatim to the name, e.g. .json")
	cmd.Flags().StringVar(&k.folder, "folder", "", "Folder directly under the base directory")
}

func (k *keyFlags) key(name string) docstore.Key {
	return docstore.Key{Name: name, Extension: k.ext, Folder: k.folder}
}
