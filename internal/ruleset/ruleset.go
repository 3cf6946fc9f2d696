// Package ruleset reads and writes rule files: an ordered list of pricing
// rules plus the store, channel and car-model catalogs they reference.
package ruleset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/gopricer/internal/rules"
)

// ErrUnsupportedFormat is returned for file extensions other than
// .yaml, .yml and .json.
var ErrUnsupportedFormat = errors.New("unsupported rule file format")

// Format is the on-disk encoding of a rule file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Document is the content of a rule file.
type Document struct {
	rules.Catalog `yaml:",inline"`
	Rules         []rules.PricingRule `json:"rules" yaml:"rules"`
}

// FormatOf picks the encoding from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Decode parses a document. Unknown fields are rejected so that typos in
// condition names do not silently widen a rule.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return &doc, nil
}

// Encode writes doc in the given format.
func Encode(w io.Writer, f Format, doc *Document) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Validate checks the rule collection and its catalog references.
// Every problem found is reported.
func (d *Document) Validate() error {
	return errors.Join(
		rules.ValidateRuleSet(d.Rules),
		rules.ValidateReferences(d.Rules, d.Catalog),
	)
}

// Load reads and validates a rule file. Rules are returned in ascending
// priority order regardless of their order in the file.
func Load(path string) (*Document, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	doc, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Rules = rules.SortByPriority(doc.Rules)
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save validates doc and writes it to path. The file is replaced through a
// rename so readers never observe a partial write.
func Save(path string, doc *Document) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, f, doc); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write rule file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write rule file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace rule file: %w", err)
	}
	return nil
}
