package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-webstore-lister/models"
)

func TestJSONWriterFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	items := []models.Item{
		{
			ID:   "abcdefghijklmnopqrstuvwxyzabcdef",
			Name: "Café Extension & Más",
			Page: "https://chromewebstore.google.com/detail/cafe/abcdefghijklmnopqrstuvwxyzabcdef",
			File: "https://clients2.google.com/service/update2/crx?x=id%3Dabcdefghijklmnopqrstuvwxyzabcdef%26uc",
		},
	}

	if err := writer.Write(items); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	want := `[
  {
    "id": "abcdefghijklmnopqrstuvwxyzabcdef",
    "name": "Café Extension & Más",
    "page": "https://chromewebstore.google.com/detail/cafe/abcdefghijklmnopqrstuvwxyzabcdef",
    "file": "https://clients2.google.com/service/update2/crx?x=id%3Dabcdefghijklmnopqrstuvwxyzabcdef%26uc"
  }
]
`
	if string(data) != want {
		t.Fatalf("output mismatch:\n got: %q\nwant: %q", string(data), want)
	}
}

func TestJSONWriterEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := writer.Write(nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "[]\n" {
		t.Fatalf("output = %q, want %q", string(data), "[]\n")
	}
}

func TestJSONWriterValidateEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unwritten.json")
	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Validate(); err == nil {
		t.Fatalf("expected validation error for empty file")
	}
}

func TestJSONWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "items.json")
	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.Write([]models.Item{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
