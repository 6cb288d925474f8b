package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "duplicate pattern",
			code:    "E104",
			wantMsg: "Duplicate route pattern",
			wantCat: CategoryCompile,
		},
		{
			name:    "missing routes dir",
			code:    "E120",
			wantMsg: "Routes directory not found",
			wantCat: CategoryConfig,
		},
		{
			name:    "module load failure",
			code:    "E140",
			wantMsg: "Route module failed to load",
			wantCat: CategoryRuntime,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryConfig, "file %q not found", "routec.json")
	if err.Message != `file "routec.json" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", err.Category, CategoryConfig)
	}
}

func TestError_Error(t *testing.T) {
	err := New("E106")
	want := "E106: Catch-all segment not in final position"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("E104").WithDetail("/posts/:param")
	want = "E104: Duplicate route pattern: /posts/:param"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestError_WithLocation(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "about.go")
	content := `package routes

import "net/http"

func GET(w http.ResponseWriter, r *http.Request {
}
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E103").WithLocation(tmpFile, 5, 48)
	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.File != tmpFile || err.Location.Line != 5 || err.Location.Column != 48 {
		t.Errorf("Location = %+v", err.Location)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}
}

func TestError_Wrap(t *testing.T) {
	inner := fmt.Errorf("disk full")
	outer := New("E130").Wrap(inner)

	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
	if !strings.Contains(outer.Error(), "disk full") {
		t.Errorf("Error() = %q, should mention cause", outer.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E130") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	re := New("E104")
	if FromError(fmt.Errorf("pass: %w", re), "E130") != re {
		t.Error("FromError should unwrap to an existing Error")
	}

	stdErr := stderrors.New("permission denied")
	result := FromError(stdErr, "E130")
	if result.Wrapped != stdErr || result.Code != "E130" {
		t.Errorf("FromError = %+v", result)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("compile: %w", New("E140").Wrap(New("E103")))

	if !HasCode(err, "E140") {
		t.Error("HasCode should find outer code")
	}
	if !HasCode(err, "E103") {
		t.Error("HasCode should find wrapped code")
	}
	if HasCode(err, "E104") {
		t.Error("HasCode reported a code that is not present")
	}
	if HasCode(stderrors.New("plain"), "E104") {
		t.Error("HasCode on a plain error should be false")
	}
}

func TestIsCategory(t *testing.T) {
	if !IsCategory(New("E121"), CategoryConfig) {
		t.Error("E121 should be a config error")
	}
	if IsCategory(New("E121"), CategoryCompile) {
		t.Error("E121 is not a compile error")
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "users/[id].go", Line: 10, Column: 5}, "users/[id].go:10:5"},
		{"without column", &Location{File: "users/[id].go", Line: 10}, "users/[id].go:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E104").
		WithPattern("/posts/:param").
		WithFiles("posts/[id].go", "posts/[slug].go").
		WithSuggestion("Rename or remove one of the files")

	formatted := err.Format()

	for _, want := range []string{
		"ERROR E104: Duplicate route pattern",
		"posts/[id].go → /posts/:param",
		"posts/[slug].go → /posts/:param",
		"Hint: Rename or remove one of the files",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E106").WithLocation("admin/[...path]/extra.go", 1, 0)
	want := "admin/[...path]/extra.go:1: E106: Catch-all segment not in final position"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E104").WithPattern("/users").WithFiles("users.go", "users/index.go")

	var decoded map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if decoded["code"] != "E104" {
		t.Errorf("code = %v", decoded["code"])
	}
	if decoded["category"] != "compile" {
		t.Errorf("category = %v", decoded["category"])
	}
	if decoded["pattern"] != "/users" {
		t.Errorf("pattern = %v", decoded["pattern"])
	}
	files, _ := decoded["files"].([]any)
	if len(files) != 2 {
		t.Errorf("files = %v", decoded["files"])
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %q before %q", codes[i-1], codes[i])
		}
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("E108")
	if !ok {
		t.Fatal("E108 should exist")
	}
	if template.Category != CategoryCompile {
		t.Errorf("Category = %q", template.Category)
	}

	if _, ok := GetTemplate("E999"); ok {
		t.Error("E999 should not exist")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}

func TestFprintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	joined := stderrors.Join(
		New("E104").WithPattern("/users/:id").WithFiles("users/[id].go", "users/[slug].go"),
		New("E106"),
	)
	FprintError(&b, joined)
	out := b.String()

	for _, want := range []string{"E104: Duplicate route pattern", "users/[slug].go → /users/:id", "E106"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	b.Reset()
	FprintError(&b, fmt.Errorf("plain failure"))
	if !strings.Contains(b.String(), "ERROR: plain failure") {
		t.Errorf("plain error output = %q", b.String())
	}
}
