// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// maxDescriptorSize bounds how much of a package descriptor is read.
const maxDescriptorSize = 1 << 20

// Descriptor holds the fields of a package descriptor that resolution uses.
type Descriptor struct {
	// Path is the descriptor file itself.
	Path string
	// Name is the optional "name" field.
	Name string
	// Main is the declared main entry, relative to the package directory.
	Main string
}

// ReadDescriptor reads and validates the package descriptor at path.
// The file must be valid JSON with a non-empty string "main" field;
// anything else is a DescriptorInvalidError.
func ReadDescriptor(fs afero.Fs, path string) (*Descriptor, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &DescriptorInvalidError{Path: path, Reason: "unreadable", Cause: err}
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxDescriptorSize+1))
	if err != nil {
		return nil, &DescriptorInvalidError{Path: path, Reason: "unreadable", Cause: err}
	}
	if len(data) > maxDescriptorSize {
		return nil, &DescriptorInvalidError{Path: path, Reason: "file too large"}
	}
	if !gjson.ValidBytes(data) {
		return nil, &DescriptorInvalidError{Path: path, Reason: "not valid JSON"}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &DescriptorInvalidError{Path: path, Reason: "top level is not an object"}
	}

	main := root.Get("main")
	if !main.Exists() {
		return nil, &DescriptorInvalidError{Path: path, Reason: `missing "main" entry`}
	}
	if main.Type != gjson.String || strings.TrimSpace(main.Str) == "" {
		return nil, &DescriptorInvalidError{Path: path, Reason: `"main" entry must be a non-empty string`}
	}

	return &Descriptor{
		Path: path,
		Name: root.Get("name").String(),
		Main: main.Str,
	}, nil
}

// EntryPath returns the absolute path of the main entry.
func (d *Descriptor) EntryPath() string {
	return filepath.Join(filepath.Dir(d.Path), filepath.FromSlash(d.Main))
}
