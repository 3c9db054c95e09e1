package manifest

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/navroute/internal/errors"
)

// Format is a manifest encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// FormatOf returns the format for a file name or object key by extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", errors.New(errors.ManifestFormat).
		Wrap(fmt.Errorf("unknown extension in %q", name))
}

// DecodeError is a decoding failure. Line and Column are 1-based and zero
// when the decoder did not report a position.
type DecodeError struct {
	Format Format
	Line   int
	Column int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s manifest line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s manifest: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses data in the given format. Unknown fields are rejected.
// It does not validate the result.
func Decode(data []byte, format Format) (*Manifest, error) {
	switch format {
	case JSON:
		return decodeJSON(data)
	case YAML:
		return decodeYAML(data)
	case TOML:
		return decodeTOML(data)
	}
	return nil, errors.New(errors.ManifestFormat).
		Wrap(fmt.Errorf("unknown format %q", format))
}

func decodeJSON(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		derr := &DecodeError{Format: JSON, Err: err}
		var syntax *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syntax):
			derr.Line, derr.Column = position(data, syntax.Offset)
		case stderrors.As(err, &typ):
			derr.Line, derr.Column = position(data, typ.Offset)
		}
		return nil, derr
	}
	if dec.More() {
		return nil, &DecodeError{Format: JSON, Err: stderrors.New("unexpected data after manifest")}
	}
	return &m, nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func decodeYAML(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return &m, nil
		}
		derr := &DecodeError{Format: YAML, Err: err}
		if match := yamlLine.FindStringSubmatch(err.Error()); match != nil {
			derr.Line, _ = strconv.Atoi(match[1])
		}
		return nil, derr
	}
	return &m, nil
}

func decodeTOML(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m)
	if err != nil {
		derr := &DecodeError{Format: TOML, Err: err}
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			derr.Line = perr.Position.Line
		}
		return nil, derr
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, &DecodeError{Format: TOML, Err: fmt.Errorf("unknown fields: %s", strings.Join(keys, ", "))}
	}
	return &m, nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	column = int(offset) - bytes.LastIndexByte(before, '\n')
	return line, column
}
