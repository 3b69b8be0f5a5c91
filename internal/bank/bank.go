// Package bank loads chapters of question/answer records from a directory of
// CSV files.
package bank

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

const fileExt = ".csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Question is one front/back pair, identified by its position in the bank
type Question struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Bank is an ordered, non-empty chapter of questions
type Bank struct {
	Chapter   string
	Questions []Question
}

// Len returns the number of questions in the bank
func (b *Bank) Len() int {
	return len(b.Questions)
}

// Source is what a study session needs from a question source
type Source interface {
	Load(chapter string) (*Bank, error)
	Chapters() ([]string, error)
}

// Loader reads chapters from <Dir>/<chapter>.csv. The extension matches
// case-insensitively, so Ch1.CSV is chapter "Ch1".
type Loader struct {
	Dir string
}

// NewLoader creates a loader rooted at dir
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Chapters lists chapter keys available in the directory, sorted
func (l *Loader) Chapters() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("bank: list %s: %w", l.Dir, err)
	}

	seen := make(map[string]bool)
	var chapters []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := chapterKey(entry.Name())
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		chapters = append(chapters, key)
	}
	sort.Strings(chapters)
	return chapters, nil
}

// chapterKey strips a .csv extension in any letter case
func chapterKey(name string) (string, bool) {
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, fileExt) || len(name) == len(ext) {
		return "", false
	}
	return strings.TrimSuffix(name, ext), true
}

// readChapter reads <chapter>.csv, falling back to a differently cased
// extension when the lower-case file does not exist
func (l *Loader) readChapter(chapter string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(l.Dir, chapter+fileExt))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return raw, err
	}

	entries, dirErr := os.ReadDir(l.Dir)
	if dirErr != nil {
		return nil, err
	}
	for _, entry := range entries {
		if key, ok := chapterKey(entry.Name()); ok && key == chapter && !entry.IsDir() {
			return os.ReadFile(filepath.Join(l.Dir, entry.Name()))
		}
	}
	return nil, err
}

// Load reads and validates one chapter. Errors are *LoadError.
func (l *Loader) Load(chapter string) (*Bank, error) {
	if !validKey(chapter) {
		return nil, &LoadError{Chapter: chapter, Kind: NotFound}
	}

	raw, err := l.readChapter(chapter)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Chapter: chapter, Kind: NotFound}
		}
		return nil, &LoadError{Chapter: chapter, Kind: NotFound, Err: err}
	}

	text, err := decode(raw)
	if err != nil {
		return nil, &LoadError{Chapter: chapter, Kind: Malformed, Err: err}
	}

	questions, err := parse(text)
	if err != nil {
		return nil, &LoadError{Chapter: chapter, Kind: Malformed, Err: err}
	}
	if len(questions) == 0 {
		return nil, &LoadError{Chapter: chapter, Kind: Empty}
	}

	return &Bank{Chapter: chapter, Questions: questions}, nil
}

func validKey(chapter string) bool {
	if chapter == "" || chapter == "." || strings.Contains(chapter, "..") {
		return false
	}
	return !strings.ContainsAny(chapter, `/\`) && filepath.Base(chapter) == chapter
}

// decode tries UTF-8 first, then GBK. A leading UTF-8 BOM is dropped.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	utf8Err := errors.New("invalid utf-8")

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Join(utf8Err, fmt.Errorf("gbk: %w", err))
	}
	if !utf8.Valid(decoded) || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", errors.Join(utf8Err, errors.New("gbk: undecodable bytes"))
	}
	return string(decoded), nil
}

func parse(text string) ([]Question, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	front, back := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "front":
			if front < 0 {
				front = i
			}
		case "back":
			if back < 0 {
				back = i
			}
		}
	}
	if front < 0 || back < 0 {
		return nil, fmt.Errorf("header %q lacks front/back columns", header)
	}
	need := max(front, back) + 1

	var questions []Question
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(record) < need {
			return nil, fmt.Errorf("record %d has %d fields, need %d", line, len(record), need)
		}
		questions = append(questions, Question{Front: record[front], Back: record[back]})
	}

	return questions, nil
}
