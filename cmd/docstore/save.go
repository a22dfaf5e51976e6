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
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	saveKey  keyFlags
	saveFrom string
)

var save = &cobra.Command{
	Use:   "save NAME",
	Short: "Store a new blob, read from --file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runSave,
}

func init() {
	saveKey.register(save)
	save.Flags().StringVar(&saveFrom, "file", "", "Read the blob from this file instead of stdin")
	root.AddCommand(save)
}

func runSave(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if saveFrom != "" {
		data, err = os.ReadFile(saveFrom)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	key := saveKey.key(args[0])
	if err := store.Save(data, key); err != nil {
		return err
	}

	logger.Info().Str("key", key.String()).Int("size", len(data)).Msg("saved")
	return nil
}
