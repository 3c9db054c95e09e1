package manifest

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/navroute/internal/errors"
)

type fakeS3 struct {
	objects map[string]string
	err     error
	gotKey  string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotKey = aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[f.gotKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func wantCode(t *testing.T, err error, code string) *errors.Error {
	t.Helper()
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != code {
		t.Fatalf("error = %v, want %s", err, code)
	}
	return coded
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "routes.yaml", siteYAML)

	m, tree, err := LoadTree(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("LoadTree() error: %v", err)
	}
	if len(m.Routes) != 4 {
		t.Errorf("Routes = %d, want 4", len(m.Routes))
	}
	if tree == nil || tree.Children["docs"] == nil {
		t.Errorf("tree = %+v, want a docs child", tree)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.yaml")
		err := wantCode(t, loadErr(t, FileSource{Path: path}), errors.ManifestNotFound)
		if err.Location == nil || err.Location.File != path {
			t.Errorf("Location = %v, want %s", err.Location, path)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		path := writeFile(t, "routes.ini", "x")
		wantCode(t, loadErr(t, FileSource{Path: path}), errors.ManifestFormat)
	})

	t.Run("syntax error has location", func(t *testing.T) {
		path := writeFile(t, "routes.yaml", "routes:\n  \"/\":\n    contents: x\n")
		err := wantCode(t, loadErr(t, FileSource{Path: path}), errors.ManifestParse)
		if err.Location == nil || err.Location.Line != 3 {
			t.Fatalf("Location = %v, want line 3", err.Location)
		}
		if len(err.Context) == 0 || !strings.Contains(strings.Join(err.Context, "\n"), "contents: x") {
			t.Errorf("Context = %q", err.Context)
		}
	})

	t.Run("invalid entry", func(t *testing.T) {
		path := writeFile(t, "routes.json", `{"routes": {"/": {"redirect": "docs"}}}`)
		wantCode(t, loadErr(t, FileSource{Path: path}), errors.ManifestEntry)
	})

	t.Run("canceled", func(t *testing.T) {
		path := writeFile(t, "routes.json", siteJSON)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Load(ctx, FileSource{Path: path})
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("Load() error = %v, want context.Canceled", err)
		}
	})
}

func loadErr(t *testing.T, src Source) error {
	t.Helper()
	_, err := Load(context.Background(), src)
	if err == nil {
		t.Fatal("Load() = nil error, want error")
	}
	return err
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"site/routes/main.toml": siteTOML}}

	src, err := Open(context.Background(), "s3://site/routes/main.toml", WithS3Client(client))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if src.Name() != "s3://site/routes/main.toml" {
		t.Errorf("Name() = %q", src.Name())
	}

	m, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if client.gotKey != "site/routes/main.toml" {
		t.Errorf("GetObject key = %q", client.gotKey)
	}
	if m.Routes["/"].Content != "home" {
		t.Errorf(`Routes["/"] = %+v`, m.Routes["/"])
	}
}

func TestS3SourceErrors(t *testing.T) {
	missing, err := NewS3Source(&fakeS3{}, "s3://site/none.json")
	if err != nil {
		t.Fatalf("NewS3Source() error: %v", err)
	}
	cerr := wantCode(t, loadErr(t, missing), errors.ManifestNotFound)
	if cerr.Location == nil || cerr.Location.File != "s3://site/none.json" {
		t.Errorf("Location = %v", cerr.Location)
	}

	denied := &S3Source{Client: &fakeS3{err: stderrors.New("access denied")}, Bucket: "site", Key: "routes.json"}
	cerr = wantCode(t, loadErr(t, denied), errors.ManifestFetch)
	if !strings.Contains(cerr.Error(), "access denied") {
		t.Errorf("Error() = %q, want the cause", cerr.Error())
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://bucket/routes.yaml", "bucket", "routes.yaml", false},
		{"s3://bucket/a/b/routes.json", "bucket", "a/b/routes.json", false},
		{"s3://bucket/", "", "", true},
		{"s3:///routes.yaml", "", "", true},
		{"https://bucket/routes.yaml", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("ParseS3URI() = %q, %q, want %q, %q", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}

func TestOpenLocal(t *testing.T) {
	src, err := Open(context.Background(), "conf/routes.yaml")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if fs, ok := src.(FileSource); !ok || fs.Path != "conf/routes.yaml" {
		t.Errorf("Open() = %#v, want FileSource", src)
	}
}
