// Package profileload builds profile registries from the built-in tables
// and external profile sources.
package profileload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a profile. Entries is a sequence so that
// declaration order survives decoding.
type Document struct {
	Name      string          `yaml:"name"`
	Extension string          `yaml:"extension,omitempty"`
	Comment   string          `yaml:"comment,omitempty"`
	Entries   []DocumentEntry `yaml:"entries"`
}

// DocumentEntry is one pattern/code pair.
type DocumentEntry struct {
	Pattern string `yaml:"pattern"`
	Code    string `yaml:"code"`
}

// Profile builds the profile described by the document.
func (d Document) Profile() (*profile.Profile, error) {
	b := profile.NewProfile(d.Name).
		Extension(d.Extension).
		Comment(d.Comment)
	for _, e := range d.Entries {
		b.Keyword(e.Pattern, e.Code)
	}
	return b.Build()
}

// DocumentFor converts a profile back into its YAML form.
func DocumentFor(p *profile.Profile) Document {
	doc := Document{
		Name:      p.Name(),
		Extension: p.Extension(),
		Comment:   p.CommentPrefix(),
	}
	for _, e := range p.Entries() {
		doc.Entries = append(doc.Entries, DocumentEntry{Pattern: e.Pattern, Code: e.Code})
	}
	return doc
}

// Decode reads one or more "---" separated profile documents.
func Decode(r io.Reader) ([]*profile.Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []*profile.Profile
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode profile document: %w", err)
		}
		p, err := doc.Profile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Encode writes a profile as a YAML document.
func Encode(w io.Writer, p *profile.Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(DocumentFor(p)); err != nil {
		return fmt.Errorf("failed to encode profile %q: %w", p.Name(), err)
	}
	return enc.Close()
}

// LoadFile decodes every profile in a YAML file.
func LoadFile(path string) ([]*profile.Profile, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied profile path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	profiles, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// ProfileFiles returns the *.yaml and *.yml files in dir, sorted by name.
// A missing directory yields no files.
func ProfileFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir decodes every profile file in dir in file name order.
func LoadDir(dir string) ([]*profile.Profile, error) {
	files, err := ProfileFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []*profile.Profile
	for _, path := range files {
		profiles, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, profiles...)
	}
	return out, nil
}
