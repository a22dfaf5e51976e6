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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listOutput string

var list = &cobra.Command{
	Use:     "list [FOLDER]",
	Aliases: []string{"ls"},
	Short:   "List the blobs of a folder, newest first",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runList,
}

func init() {
	list.Flags().StringVar(&listOutput, "output", "text", "Output format: text or yaml")
	root.AddCommand(list)
}

func runList(cmd *cobra.Command, args []string) error {
	folder := ""
	if len(args) == 1 {
		folder = args[0]
	}

	entries, err := store.Entries(folder)
	if err != nil {
		return err
	}

	switch listOutput {
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, e := range entries {
			created := "-"
			if !e.Created.IsZero() {
				created = e.Created.Local().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", created, e.Size, e.Name)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", listOutput)
	}
}
