package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"

	"docqa/internal/models"
)

// ErrExtraction marks an unreadable, empty, or oversized document.
// Recoverable: the user can upload a different file.
var ErrExtraction = errors.New("document extraction failed")

// Extract produces a document's raw text from uploaded bytes. The size cap
// is enforced before any parsing happens.
func Extract(data []byte, filename string, maxBytes int) (models.Document, error) {
	if len(data) > maxBytes {
		return models.Document{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrExtraction, filename, len(data), maxBytes)
	}
	if len(data) == 0 {
		return models.Document{}, fmt.Errorf("%w: %s is empty", ErrExtraction, filename)
	}

	var (
		text string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".pptx":
		text, err = extractPPTX(data)
	case ".xlsx":
		text, err = extractXLSX(data)
	case ".ods":
		text, err = extractODS(data)
	case ".md", ".markdown":
		text, err = extractMarkdown(data)
	case ".txt":
		text = string(data)
	default:
		return models.Document{}, fmt.Errorf("%w: unsupported file format %q", ErrExtraction, ext)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %s: %v", ErrExtraction, filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return models.Document{}, fmt.Errorf("%w: no text content found in %s", ErrExtraction, filename)
	}

	return models.Document{
		Text:   text,
		Source: filename,
		Size:   len(data),
	}, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return tagText(content, "<w:t", "</w:t>"), nil
}

func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, file := range zr.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text.WriteString(tagText(buf.String(), "<a:t", "</a:t>"))
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractXLSX(data []byte) (string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func extractODS(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gmtext.NewReader(data))

	var text strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				text.Write(t.Segment.Value(data))
				if t.SoftLineBreak() || t.HardLineBreak() {
					text.WriteString("\n")
				}
			}
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			text.WriteString("\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return text.String(), nil
}

// tagText pulls the character data out of repeated XML elements without a
// full XML parse, the way OOXML run text is packed.
func tagText(xmlContent, openPrefix, closeTag string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, openPrefix)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// skip the rest of the opening tag
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		part = part[gt+1:]
		endIdx := strings.Index(part, closeTag)
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
