package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/routec/pkg/emit"
)

const testModule = "example.com/shop"

func routeSource(pkg string, exports ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\nimport \"net/http\"\n\n", pkg)
	for _, name := range exports {
		fmt.Fprintf(&b, "func %s(w http.ResponseWriter, r *http.Request) {}\n\n", name)
	}
	return b.String()
}

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func readProjectFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// testProject creates a module with the five-route users tree.
func testProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeProjectFile(t, dir, "go.mod", "module "+testModule+"\n\ngo 1.24\n")
	writeProjectFile(t, dir, "app/routes/index.go", routeSource("routes", "GET"))
	writeProjectFile(t, dir, "app/routes/about.go", routeSource("routes", "AboutGET"))
	writeProjectFile(t, dir, "app/routes/users/index.go", routeSource("users", "ListGET", "ListPOST"))
	writeProjectFile(t, dir, "app/routes/users/[id].go", routeSource("users", "ShowGET", "ShowDELETE"))
	writeProjectFile(t, dir, "app/routes/users/[...path].go", routeSource("users", "FilesGET"))
	return dir
}

// runCLI executes the root command with args and returns its combined
// output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type putCall struct {
	bucket, key string
	body        []byte
}

type fakeS3 struct {
	mu    sync.Mutex
	calls []putCall
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var body bytes.Buffer
	if _, err := body.ReadFrom(in.Body); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, putCall{bucket: aws.ToString(in.Bucket), key: aws.ToString(in.Key), body: body.Bytes()})
	return &s3.PutObjectOutput{}, nil
}

// useFakeS3 routes publish.s3 to a fake for the rest of the test.
func useFakeS3(t *testing.T) (*fakeS3, *string) {
	t.Helper()
	fake := &fakeS3{}
	var region string
	orig := newS3Client
	newS3Client = func(_ context.Context, r string) (emit.PutObjectAPI, error) {
		region = r
		return fake, nil
	}
	t.Cleanup(func() { newS3Client = orig })
	return fake, &region
}
