package nav

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantHash    string
		wantChanged bool
		wantErr     error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "simple path", input: "/about", wantPath: "/about"},
		{name: "empty", input: "", wantPath: "/", wantChanged: true},
		{name: "trailing slash", input: "/about/", wantPath: "/about", wantChanged: true},
		{name: "double slash", input: "/blog//post", wantPath: "/blog/post", wantChanged: true},
		{name: "single dot", input: "/blog/./post", wantPath: "/blog/post", wantChanged: true},
		{name: "double dot", input: "/blog/posts/../other", wantPath: "/blog/other", wantChanged: true},
		{name: "double dot to root", input: "/blog/../", wantPath: "/", wantChanged: true},
		{name: "query and hash preserved", input: "/a/?x=1#top", wantPath: "/a", wantQuery: "x=1", wantHash: "top", wantChanged: true},
		{name: "valid escape", input: "/a%20b", wantPath: "/a%20b"},
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "null byte", input: "/a%00b", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/a%GG", wantErr: ErrInvalidPercentEscape},
		{name: "truncated escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
		{name: "escapes root", input: "/../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.Hash != tt.wantHash {
				t.Errorf("Hash = %q, want %q", got.Hash, tt.wantHash)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		wantHref string
		wantErr  error
	}{
		{input: "/users/./42/", wantHref: "/users/42"},
		{input: "/search?q=go", wantHref: "/search?q=go"},
		{input: "https://evil.example/", wantErr: ErrAbsoluteURL},
		{input: "//evil.example/", wantErr: ErrAbsoluteURL},
		{input: "relative", wantErr: ErrInvalidPath},
		{input: "/../etc/passwd", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			o, err := Parse(tt.input, WithReplace(true))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if o.Href() != tt.wantHref {
				t.Errorf("Href() = %q, want %q", o.Href(), tt.wantHref)
			}
			if !o.Replace() {
				t.Error("options should be applied")
			}
		})
	}
}
