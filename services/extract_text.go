package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// TextExtractor turns uploaded files into plain text for chunking.
// Supported: PDF, HTML, DOCX and plain text.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract dispatches on the file extension.
func (e *TextExtractor) Extract(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(data)
	case ".html", ".htm":
		return e.extractHTML(data)
	case ".docx":
		return e.extractDOCX(data)
	default:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("file %s is not valid UTF-8 text", filename)
		}
		return string(data), nil
	}
}

func (e *TextExtractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One broken page should not lose the rest
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", fmt.Errorf("no extractable text in PDF")
	}
	return result, nil
}

func (e *TextExtractor) extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, td, blockquote, pre").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	})

	result := strings.TrimSpace(b.String())
	if result == "" {
		// Fall back to full body text for pages without block structure
		result = strings.TrimSpace(doc.Find("body").Text())
	}
	if result == "" {
		return "", fmt.Errorf("no extractable text in HTML")
	}
	return result, nil
}

// docx paragraphs live in word/document.xml as w:p elements containing
// w:t text runs.
func (e *TextExtractor) extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("failed to read document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("document.xml not found in DOCX archive")
	}

	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	var b strings.Builder
	var inText bool
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", fmt.Errorf("no extractable text in DOCX")
	}
	return result, nil
}
