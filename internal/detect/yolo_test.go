package detect

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coco.names")
	content := "person\nbicycle\n\ncar\n  \ndog\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	labels, err := loadLabels(path)
	if err != nil {
		t.Fatalf("loadLabels failed: %v", err)
	}

	want := []string{"person", "bicycle", "car", "dog"}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels, want %d: %v", len(labels), len(want), labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestLoadLabels_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.names")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadLabels(tt.path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadLabels_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.names")
	if err := os.WriteFile(path, []byte("\n \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadLabels(path); err == nil {
		t.Error("expected error for a labels file with no entries")
	}
}

func TestNewYOLODetector_RequiresPaths(t *testing.T) {
	if _, err := NewYOLODetector(YOLOConfig{}); err == nil {
		t.Error("expected error for missing model paths")
	}
	if _, err := NewYOLODetector(YOLOConfig{ModelPath: "m.weights"}); err == nil {
		t.Error("expected error for missing config path")
	}
}
