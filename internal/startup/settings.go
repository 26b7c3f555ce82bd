package startup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"justified-gallery/internal/gallery"
)

// LoadGallerySettings reads gallery options from a YAML file. Keys use the
// same names as the layout query options, for example:
//
//	rowHeight: 160
//	maxRowHeight: "200%"
//	lastRow: center
//	sizeRangeSuffixes:
//	  100: _t
//	  240: _m
//
// An empty path returns the defaults.
func LoadGallerySettings(path string) (gallery.Settings, error) {
	if path == "" {
		return gallery.DefaultSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return gallery.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	opts, err := DecodeOptions(data)
	if err != nil {
		return gallery.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return gallery.ParseOptions(opts)
}

// DecodeOptions decodes a YAML document into a gallery option bag. An
// empty document yields no options.
func DecodeOptions(data []byte) (map[string]any, error) {
	var opts map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if opts == nil {
		opts = map[string]any{}
	}
	return opts, nil
}
