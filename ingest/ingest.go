// Package ingest turns uploaded documents into normalized plain text. It
// validates files, routes them to a format-specific parser by extension, and
// treats extractions below a minimum length as failures rather than empty
// successes.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuga-i2/DOCUFORGE-AI/log"
)

var (
	// ErrFileNotFound is returned when the path does not exist.
	ErrFileNotFound = errors.New("file does not exist")
	// ErrUnsupportedFormat is returned for extensions with no parser.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned for zero-byte files.
	ErrEmptyFile = errors.New("file is empty")
	// ErrFileTooLarge is returned when the file exceeds the size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	// ErrTextTooShort marks extractions below the minimum-length
	// threshold; an essentially empty extraction is an ingestion failure,
	// not success with empty content.
	ErrTextTooShort = errors.New("extracted text below minimum length")
)

// ParseFunc extracts raw text from a file of one format.
type ParseFunc func(path string) (string, error)

// Ingester validates and parses uploaded documents.
type Ingester struct {
	MaxFileSizeMB int
	MinTextLength int
	Logger        log.Logger

	parsers map[string]ParseFunc
}

// New creates an Ingester with the built-in parsers (pdf, txt, md, csv)
// registered. Additional formats can be added with Register.
func New(maxFileSizeMB, minTextLength int, logger log.Logger) *Ingester {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	ing := &Ingester{
		MaxFileSizeMB: maxFileSizeMB,
		MinTextLength: minTextLength,
		Logger:        logger,
		parsers:       make(map[string]ParseFunc),
	}
	ing.Register("pdf", parsePDF)
	ing.Register("txt", parsePlainText)
	ing.Register("md", parsePlainText)
	ing.Register("csv", parsePlainText)
	return ing
}

// Register adds or replaces the parser for an extension (without the dot).
func (ing *Ingester) Register(extension string, fn ParseFunc) {
	ing.parsers[strings.ToLower(extension)] = fn
}

// SupportedFormats lists registered extensions, sorted.
func (ing *Ingester) SupportedFormats() []string {
	formats := make([]string, 0, len(ing.parsers))
	for ext := range ing.parsers {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

// Validate checks existence, extension, and size limits without parsing.
func (ing *Ingester) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	ext := extension(path)
	if _, ok := ing.parsers[ext]; !ok {
		return fmt.Errorf("%w: .%s (supported: %s)",
			ErrUnsupportedFormat, ext, strings.Join(ing.SupportedFormats(), ", "))
	}

	if info.Size() == 0 {
		return ErrEmptyFile
	}
	if ing.MaxFileSizeMB > 0 && info.Size() > int64(ing.MaxFileSizeMB)*1024*1024 {
		return fmt.Errorf("%w: limit %dMB", ErrFileTooLarge, ing.MaxFileSizeMB)
	}
	return nil
}

// Ingest validates the file, parses it, and normalizes the result. It
// returns the clean text and the detected format.
func (ing *Ingester) Ingest(path string) (text, format string, err error) {
	if err := ing.Validate(path); err != nil {
		return "", "", err
	}

	format = extension(path)
	raw, err := ing.parsers[format](path)
	if err != nil {
		return "", format, fmt.Errorf("parsing %s file: %w", format, err)
	}

	text = Normalize(raw)
	ing.Logger.Debug("ingest: %s normalized %d -> %d chars", filepath.Base(path), len(raw), len(text))

	if len(text) < ing.MinTextLength {
		return "", format, fmt.Errorf("%w: got %d chars, need %d", ErrTextTooShort, len(text), ing.MinTextLength)
	}
	return text, format, nil
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func parsePlainText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var (
	controlRe    = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
	trailingWsRe = regexp.MustCompile(`[ \t]+\n`)
)

// Normalize strips control characters, collapses whitespace runs, and trims
// the text so every format reaches downstream stages in the same shape.
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = controlRe.ReplaceAllString(text, "")
	text = trailingWsRe.ReplaceAllString(text, "\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
