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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rocky-linux/docstore/internal/blob/file"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// run executes the command tree against a fresh base directory setup.
func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(dir, "docstore.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o644))
	}

	resetFlags(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath, "--root", filepath.Join(dir, "docs")}, args...))
	t.Cleanup(func() {
		root.SetArgs(nil)
		resetFlags(root)
	})

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags puts every flag of cmd and its subcommands back to its default,
// since the command tree is shared by all tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestSaveGetDeleteCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, `{"a":1}`, "save", "report", "--ext", ".json", "--folder", "exports")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "docs", "exports", "report.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))

	_, err = run(t, dir, "other", "save", "report", "--ext", ".json", "--folder", "exports")
	assert.ErrorContains(t, err, "already exists")

	out, err := run(t, dir, "", "get", "report", "--ext", ".json", "--folder", "exports")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	target := filepath.Join(dir, "copy.json")
	_, err = run(t, dir, "", "get", "report", "--ext", ".json", "--folder", "exports", "--out", target)
	require.NoError(t, err)
	raw, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))

	out, err = run(t, dir, "", "get", "report", "--ext", ".json", "--folder", "exports")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out, "--out from the previous run must not stick")

	_, err = run(t, dir, "", "delete", "report", "--ext", ".json", "--folder", "exports")
	require.NoError(t, err)

	_, err = run(t, dir, "", "get", "report", "--ext", ".json", "--folder", "exports")
	assert.ErrorContains(t, err, "not found")
}

func TestSaveFromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.bin")
	require.NoError(t, os.WriteFile(src, []byte{1, 2, 3}, 0o644))

	_, err := run(t, dir, "", "save", "blob", "--file", src)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "docs", "blob"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)
}

func TestListCommandYAML(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "one", "save", "a", "--ext", "", "--folder", "f")
	require.NoError(t, err)
	_, err = run(t, dir, "three", "save", "b", "--ext", "", "--folder", "f")
	require.NoError(t, err)

	out, err := run(t, dir, "", "list", "f", "--output", "yaml")
	require.NoError(t, err)

	var entries []struct {
		Name   string `yaml:"name"`
		Folder string `yaml:"folder"`
		Size   int64  `yaml:"size"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)

	sizes := map[string]int64{}
	for _, e := range entries {
		assert.Equal(t, "f", e.Folder)
		sizes[e.Name] = e.Size
	}
	assert.Equal(t, map[string]int64{"a": 3, "b": 5}, sizes)

	_, err = run(t, dir, "", "list", "f", "--output", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestTreeCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "x", "save", "a", "--ext", ".txt", "--folder", "f")
	require.NoError(t, err)

	out, err := run(t, dir, "", "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "f/a.txt")
	assert.Contains(t, out, "---- total files ---- 2")
}

func TestMirrorCommands(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "backup")

	_, err := run(t, dir, "payload", "save", "a", "--ext", "", "--folder", "f")
	require.NoError(t, err)

	_, err = run(t, dir, "", "mirror", "push", "f", "--target", "file://"+backup, "--prefix", "nightly")
	require.NoError(t, err)

	body, err := file.New(backup).Read(context.Background(), "nightly/f/a")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	other := t.TempDir()
	_, err = run(t, other, "", "mirror", "pull", "f", "--target", "file://"+backup, "--prefix", "nightly")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(other, "docs", "f", "a"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(raw))
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	s, err := openStorage(ctx, "file:///tmp/docstore-backup")
	require.NoError(t, err)
	assert.IsType(t, &file.File{}, s)

	_, err = openStorage(ctx, "ftp://host/path")
	assert.ErrorContains(t, err, "unsupported target scheme")

	_, err = openStorage(ctx, "s3://")
	assert.ErrorContains(t, err, "no bucket")

	_, err = openStorage(ctx, "gs:///path")
	assert.ErrorContains(t, err, "no bucket")
}
