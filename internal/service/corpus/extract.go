package corpus

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files the extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

const (
	docxBodyPart = "word/document.xml"

	markupCompatibilityNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// documentExtensions lists the project document formats picked up from the
// projects directory.
var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".docx":     true,
}

// IsDocument reports whether name has an extension the loader understands.
func IsDocument(name string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(name))]
}

// ExtractText returns the plain text of a document.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return extractDocx(path)
	case ".md", ".markdown", ".txt":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
		}
		defer rc.Close()
		return flattenWordXML(rc)
	}

	return "", fmt.Errorf("docx has no %s", docxBodyPart)
}

// flattenWordXML walks a WordprocessingML body and keeps only run text.
// Paragraphs and breaks become newlines, tabs stay tabs. Alternate content
// (text boxes, shapes) is stored twice; only the mc:Choice copy is kept.
func flattenWordXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		builder strings.Builder
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if isFallback(el.Name) {
				if err := decoder.Skip(); err != nil {
					return "", fmt.Errorf("parse document xml: %w", err)
				}
				continue
			}
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				builder.WriteByte('\t')
			case "br", "cr":
				builder.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				builder.Write(el)
			}
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func isFallback(name xml.Name) bool {
	return name.Local == "Fallback" && (name.Space == markupCompatibilityNS || name.Space == "mc")
}
