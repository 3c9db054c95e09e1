package manifest

import (
	stderrors "errors"
	"testing"

	"github.com/vango-dev/navroute/internal/errors"
)

const siteJSON = `{
  "maxRedirects": 5,
  "notFound": {"content": "404"},
  "routes": {
    "/": {"content": "home"},
    "/docs": {"layout": "<docs>{{next}}</docs>", "content": "index"},
    "/old": {"redirect": "/docs", "replace": true},
    "/admin": {"guard": {"query": "token", "equals": "s3cret", "redirect": "/"}, "content": "admin"}
  }
}`

const siteYAML = `maxRedirects: 5
notFound: { content: "404" }
routes:
  "/": { content: home }
  "/docs": { layout: "<docs>{{next}}</docs>", content: index }
  "/old": { redirect: /docs, replace: true }
  "/admin":
    guard: { query: token, equals: s3cret, redirect: / }
    content: admin
`

const siteTOML = `maxRedirects = 5

[notFound]
content = "404"

[routes."/"]
content = "home"

[routes."/docs"]
layout = "<docs>{{next}}</docs>"
content = "index"

[routes."/old"]
redirect = "/docs"
replace = true

[routes."/admin"]
content = "admin"
guard = { query = "token", equals = "s3cret", redirect = "/" }
`

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"routes.json", JSON, false},
		{"conf/routes.YAML", YAML, false},
		{"routes.yml", YAML, false},
		{"s3://bucket/site/routes.toml", TOML, false},
		{"routes.txt", "", true},
		{"routes", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatOf(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatOf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatOf() = %q, want %q", got, tt.want)
			}
			var coded *errors.Error
			if tt.wantErr && (!stderrors.As(err, &coded) || coded.Code != errors.ManifestFormat) {
				t.Errorf("FormatOf() error = %v, want %s", err, errors.ManifestFormat)
			}
		})
	}
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{JSON, siteJSON},
		{YAML, siteYAML},
		{TOML, siteTOML},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			m, err := Decode([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if m.MaxRedirects != 5 {
				t.Errorf("MaxRedirects = %d, want 5", m.MaxRedirects)
			}
			if m.NotFound == nil || m.NotFound.Content != "404" {
				t.Errorf("NotFound = %+v", m.NotFound)
			}
			if len(m.Routes) != 4 {
				t.Fatalf("Routes = %d, want 4", len(m.Routes))
			}
			if e := m.Routes["/docs"]; e.Layout != "<docs>{{next}}</docs>" || e.Content != "index" {
				t.Errorf(`Routes["/docs"] = %+v`, e)
			}
			if e := m.Routes["/old"]; e.Redirect != "/docs" || !e.Replace {
				t.Errorf(`Routes["/old"] = %+v`, e)
			}
			g := m.Routes["/admin"].Guard
			if g == nil || g.Query != "token" || g.Equals != "s3cret" || g.Redirect != "/" {
				t.Errorf(`Routes["/admin"].Guard = %+v`, g)
			}
			if err := m.Validate(); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		data     string
		wantLine int
	}{
		{"json syntax", JSON, "{\n  \"routes\": {\n    \"/\": {\"content\": }\n  }\n}", 3},
		{"json unknown field", JSON, `{"routes": {}, "extra": 1}`, 0},
		{"json type", JSON, "{\n\"maxRedirects\": \"ten\"}", 2},
		{"json trailing data", JSON, `{"routes": {}} {}`, 0},
		{"yaml syntax", YAML, "routes:\n  \"/\": [content\n", 0},
		{"yaml unknown field", YAML, "routes:\n  \"/\":\n    contents: x\n", 3},
		{"toml syntax", TOML, "maxRedirects = \n", 0},
		{"toml unknown field", TOML, "[routes.\"/\"]\ncontents = \"x\"\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			var derr *DecodeError
			if !stderrors.As(err, &derr) {
				t.Fatalf("Decode() error = %v, want *DecodeError", err)
			}
			if derr.Format != tt.format {
				t.Errorf("Format = %q, want %q", derr.Format, tt.format)
			}
			if tt.wantLine > 0 && derr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", derr.Line, tt.wantLine, err)
			}
		})
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode([]byte("{}"), "xml")
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != errors.ManifestFormat {
		t.Errorf("Decode() error = %v, want %s", err, errors.ManifestFormat)
	}
}

func TestPosition(t *testing.T) {
	data := []byte("ab\ncd\nef")
	tests := []struct {
		offset    int64
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 2},
		{7, 3, 2},
		{100, 3, 3},
	}
	for _, tt := range tests {
		line, col := position(data, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}
