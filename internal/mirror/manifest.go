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

package mirror

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// ManifestName is stored next to the mirrored blobs of a folder. Each line
// holds a hex checksum and a filename separated by one space.
const ManifestName = ".docstore.metadata"

type manifest map[string]string

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (m manifest) encode() []byte {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "%s %s\n", m[name], name)
	}
	return buf.Bytes()
}

func parseManifest(content []byte) (manifest, error) {
	m := manifest{}
	sc := bufio.NewScanner(bytes.NewReader(content))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		sum, name, ok := strings.Cut(line, " ")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed manifest line %d", n)
		}
		m[name] = sum
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// verify checks content against a hex checksum. The hash function is picked
// by the checksum length.
func verify(content []byte, sum string) error {
	var h hash.Hash
	switch len(sum) {
	case 128:
		h = sha512.New()
	case 64:
		h = sha256.New()
	case 40:
		h = sha1.New()
	case 32:
		h = md5.New()
	default:
		return fmt.Errorf("unsupported checksum %q", sum)
	}

	h.Write(content)
	if calculated := hex.EncodeToString(h.Sum(nil)); calculated != strings.ToLower(sum) {
		return fmt.Errorf("wanted checksum %s, but got %s", sum, calculated)
	}
	return nil
}
