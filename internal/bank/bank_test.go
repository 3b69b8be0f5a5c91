package bank

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeChapter(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeChapter(t, dir, "basics.csv", []byte("Front,Back\nWhat is 2+2?,4\n\"Quoted, front\",\n"))
	writeChapter(t, dir, "reordered.csv", []byte("id,back,front\n1,answer,question\n"))
	writeChapter(t, dir, "bom.csv", append([]byte{0xEF, 0xBB, 0xBF}, []byte("front,back\nq,a\n")...))

	tests := []struct {
		chapter string
		want    []Question
	}{
		{
			chapter: "basics",
			want: []Question{
				{Front: "What is 2+2?", Back: "4"},
				{Front: "Quoted, front", Back: ""},
			},
		},
		{chapter: "reordered", want: []Question{{Front: "question", Back: "answer"}}},
		{chapter: "bom", want: []Question{{Front: "q", Back: "a"}}},
	}

	loader := NewLoader(dir)
	for _, tt := range tests {
		t.Run(tt.chapter, func(t *testing.T) {
			b, err := loader.Load(tt.chapter)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if b.Chapter != tt.chapter {
				t.Errorf("Chapter = %q, want %q", b.Chapter, tt.chapter)
			}
			if !reflect.DeepEqual(b.Questions, tt.want) {
				t.Errorf("Questions = %+v, want %+v", b.Questions, tt.want)
			}
			if b.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", b.Len(), len(tt.want))
			}
		})
	}
}

func TestLoadGBKFallback(t *testing.T) {
	dir := t.TempDir()
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("Front,Back\n导数的定义,极限\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	writeChapter(t, dir, "calculus.csv", []byte(encoded))

	b, err := NewLoader(dir).Load("calculus")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []Question{{Front: "导数的定义", Back: "极限"}}
	if !reflect.DeepEqual(b.Questions, want) {
		t.Errorf("Questions = %+v, want %+v", b.Questions, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeChapter(t, dir, "empty.csv", []byte("front,back\n"))
	writeChapter(t, dir, "blank.csv", nil)
	writeChapter(t, dir, "nocolumn.csv", []byte("front,answer\nq,a\n"))
	writeChapter(t, dir, "short.csv", []byte("front,back\nq,a\nonly-front\n"))
	writeChapter(t, dir, "binary.csv", append([]byte("front,back\n"), 0xFF, 0xFF, 0xFF))

	tests := []struct {
		chapter string
		kind    Kind
		target  error
	}{
		{chapter: "missing", kind: NotFound, target: ErrNotFound},
		{chapter: "../etc/passwd", kind: NotFound, target: ErrNotFound},
		{chapter: "sub/dir", kind: NotFound, target: ErrNotFound},
		{chapter: "", kind: NotFound, target: ErrNotFound},
		{chapter: "empty", kind: Empty, target: ErrEmpty},
		{chapter: "blank", kind: Empty, target: ErrEmpty},
		{chapter: "nocolumn", kind: Malformed, target: ErrMalformed},
		{chapter: "short", kind: Malformed, target: ErrMalformed},
		{chapter: "binary", kind: Malformed, target: ErrMalformed},
	}

	loader := NewLoader(dir)
	for _, tt := range tests {
		t.Run(tt.chapter, func(t *testing.T) {
			b, err := loader.Load(tt.chapter)
			if b != nil {
				t.Errorf("Load() returned a bank on error: %+v", b)
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Load() error = %v, want *LoadError", err)
			}
			if loadErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", loadErr.Kind, tt.kind)
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.target)
			}
		})
	}
}

func TestChapters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt", "C.CSV", "Ch1.Csv", ".csv"} {
		writeChapter(t, dir, name, []byte("front,back\nq,a\n"))
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := NewLoader(dir).Chapters()
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if want := []string{"C", "Ch1", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Chapters() = %v, want %v", got, want)
	}

	// Every listed chapter must load, whatever the case of its extension
	for _, chapter := range got {
		if _, err := NewLoader(dir).Load(chapter); err != nil {
			t.Errorf("Load(%q) error = %v", chapter, err)
		}
	}

	if _, err := NewLoader(filepath.Join(dir, "absent")).Chapters(); err == nil {
		t.Error("Chapters() on a missing directory should fail")
	}
}
