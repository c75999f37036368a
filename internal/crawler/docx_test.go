package crawler

import (
	"archive/zip"
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/ragcrawl/internal/model"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildDOCX zips the given document body XML and relationship entries
// into a minimal .docx package.
func buildDOCX(t *testing.T, body string, rels string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + rels + `</Relationships>`,
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func cell(paragraphs ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:tc>")
	for _, p := range paragraphs {
		sb.WriteString(para(p))
	}
	sb.WriteString("</w:tc>")
	return sb.String()
}

func docxDoc(body []byte) *model.Document {
	return &model.Document{URL: "https://example.com/manual.docx", ContentType: MediaTypeDOCX, Body: body}
}

func TestDOCXHandlerParseText(t *testing.T) {
	t.Parallel()

	t.Run("paragraphs and tables in body order", func(t *testing.T) {
		t.Parallel()

		body := para("Intro") +
			`<w:tbl>` +
			`<w:tr>` + cell("a") + cell("bb") + `</w:tr>` +
			`<w:tr>` + cell("ccc") + cell("dddddddddd") + `</w:tr>` +
			`</w:tbl>` +
			para("Outro")

		text, err := NewDOCXHandler().ParseText(docxDoc(buildDOCX(t, body, "")))
		if err != nil {
			t.Fatalf("ParseText: %v", err)
		}

		want := "Intro\n\n" +
			"|a  |bb        |\n" +
			"|ccc|dddddddddd|\n" +
			"Outro\n\n"
		if text != want {
			t.Errorf("ParseText() =\n%q\nwant\n%q", text, want)
		}
	})

	t.Run("multi paragraph cells render on one line", func(t *testing.T) {
		t.Parallel()

		body := `<w:tbl><w:tr>` + cell("first", "second") + cell("x") + `</w:tr></w:tbl>`
		text, err := NewDOCXHandler().ParseText(docxDoc(buildDOCX(t, body, "")))
		if err != nil {
			t.Fatalf("ParseText: %v", err)
		}
		if text != "|first second|x|\n" {
			t.Errorf("ParseText() = %q", text)
		}
	})

	t.Run("runs tabs and breaks", func(t *testing.T) {
		t.Parallel()

		body := `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t></w:r><w:r><w:br/><w:t>c</w:t></w:r></w:p>`
		text, err := NewDOCXHandler().ParseText(docxDoc(buildDOCX(t, body, "")))
		if err != nil {
			t.Fatalf("ParseText: %v", err)
		}
		if text != "a\tb\nc\n\n" {
			t.Errorf("ParseText() = %q", text)
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		t.Parallel()

		if _, err := NewDOCXHandler().ParseText(docxDoc([]byte("nope"))); err == nil {
			t.Error("expected error")
		}
	})
}

func TestDOCXHandlerFindLinks(t *testing.T) {
	t.Parallel()

	rels := `<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/z" TargetMode="External"/>` +
		`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/a" TargetMode="External"/>` +
		`<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/z" TargetMode="External"/>`

	links, err := NewDOCXHandler().FindLinks(docxDoc(buildDOCX(t, para("x"), rels)), "example.com")
	if err != nil {
		t.Fatalf("FindLinks: %v", err)
	}
	want := []string{"https://example.com/a", "https://example.com/z"}
	if !slices.Equal(links, want) {
		t.Errorf("FindLinks() = %v, want %v", links, want)
	}
}
