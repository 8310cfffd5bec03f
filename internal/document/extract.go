// Package document turns input files into plain text for reading aloud
package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	// ErrFileNotFound is returned when the input path does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for extensions other than .txt, .md and .docx
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument is returned when a file holds no readable text
	ErrEmptyDocument = errors.New("document is empty")
)

// SupportedExtensions lists the file types Extract understands
var SupportedExtensions = []string{".txt", ".md", ".docx"}

const docxBody = "word/document.xml"

var blankLines = regexp.MustCompile(`\n{3,}`)

// Extract reads path and returns its text, trimmed
func Extract(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		text, err = readPlain(path)
	case ".md":
		text, err = readMarkdown(path)
	case ".docx":
		text, err = readDocx(path)
	default:
		return "", fmt.Errorf("%w %q: use one of %s", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return text, nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// readMarkdown renders markdown to HTML and strips every tag, leaving
// the prose without markup characters the voice would read out
func readMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return MarkdownToText(string(data)), nil
}

// MarkdownToText converts markdown source to plain text
func MarkdownToText(source string) string {
	// No smartypants: quotes and dashes stay as written
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: blackfriday.UseXHTML})
	rendered := blackfriday.Run([]byte(source),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(renderer))
	stripped := bluemonday.StrictPolicy().SanitizeBytes(rendered)
	text := html.UnescapeString(string(stripped))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}

func readDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s in %s: %w", docxBody, path, err)
		}
		defer rc.Close()
		return docxParagraphs(rc)
	}
	return "", fmt.Errorf("failed to read docx %s: missing %s", path, docxBody)
}

// docxParagraphs collects the text runs of each <w:p>, one paragraph per line
func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
