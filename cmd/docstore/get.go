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
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	getKey   keyFlags
	getOut   string
	getForce bool
)

var get = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a blob to stdout or write it to --out",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getKey.register(get)
	get.Flags().StringVarP(&getOut, "out", "o", "", "Write the blob to this file")
	get.Flags().BoolVar(&getForce, "force", false, "Write to stdout even when it is a terminal")
	root.AddCommand(get)
}

func runGet(cmd *cobra.Command, args []string) error {
	data, err := store.Get(getKey.key(args[0]))
	if err != nil {
		return err
	}

	if getOut != "" {
		return os.WriteFile(getOut, data, 0644)
	}

	if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) && !getForce {
		return errors.New("refusing to write a blob to a terminal, use --out or --force")
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
