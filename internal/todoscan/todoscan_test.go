package todoscan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFindsAnnotations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", strings.Join([]string{
		"package main",
		"",
		"func run() error {",
		"\t// TODO: handle shutdown signal",
		"\treturn nil",
		"}",
	}, "\n"))

	todos, err := NewScanner(dir).Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 1 {
		t.Fatalf("len(todos) = %d, want 1", len(todos))
	}
	todo := todos[0]
	if todo.File != "main.go" || todo.Line != 4 {
		t.Errorf("location = %s:%d, want main.go:4", todo.File, todo.Line)
	}
	if todo.Text != "handle shutdown signal" {
		t.Errorf("Text = %q", todo.Text)
	}
	if todo.FunctionContext != "Function: run" {
		t.Errorf("FunctionContext = %q", todo.FunctionContext)
	}
	if !strings.Contains(todo.Context, "> \t// TODO: handle shutdown signal") {
		t.Errorf("Context missing marked line:\n%s", todo.Context)
	}
}

func TestScanAnnotationForms(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "forms.py", strings.Join([]string{
		"# TODO: plain hash",
		"## FIXME(alice): double hash with owner",
		"# NOTE: a note",
		"x = 1  # TODO: trailing comments are not annotations",
		"# TODO:",
	}, "\n"))

	todos, err := NewScanner(dir).Scan()
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, todo := range todos {
		texts = append(texts, todo.Text)
	}
	want := []string{"plain hash", "double hash with owner", "a note"}
	if len(texts) != len(want) {
		t.Fatalf("texts = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestScanSkipsIgnoredDirsAndNonCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node_modules/pkg/index.js", "// TODO: ignored\n")
	writeFile(t, dir, ".git/hooks/sample.py", "# TODO: ignored\n")
	writeFile(t, dir, "README.md", "// TODO: not a code file\n")
	writeFile(t, dir, "src/app.ts", "// TODO: keep me\n")

	todos, err := NewScanner(dir).Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 1 {
		t.Fatalf("todos = %+v, want exactly one", todos)
	}
	if todos[0].File != filepath.Join("src", "app.ts") {
		t.Errorf("File = %q", todos[0].File)
	}
}

func TestEnclosingDecl(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		idx   int
		want  string
	}{
		{
			name: "nearest function wins",
			lines: []string{
				"class Account:",
				"    def balance(self):",
				"        # TODO: cache this",
			},
			idx:  2,
			want: "Function: balance",
		},
		{
			name: "type without function",
			lines: []string{
				"type Config struct {",
				"\t// TODO: add timeouts",
				"}",
			},
			idx:  1,
			want: "Class: Config",
		},
		{
			name:  "top level",
			lines: []string{"# TODO: wire flags"},
			idx:   0,
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enclosingDecl(tt.lines, tt.idx); got != tt.want {
				t.Errorf("enclosingDecl() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextAroundAtFileEdges(t *testing.T) {
	lines := []string{"# TODO: first line", "second", "third"}
	got := contextAround(lines, 0)
	if !strings.HasPrefix(got, "> # TODO: first line") {
		t.Errorf("context at top of file:\n%s", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("expected 3 lines of context, got:\n%s", got)
	}
}
