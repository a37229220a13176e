// Package testfixtures builds small PDF and EPUB files for tests.
package testfixtures

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Chapter is one spine document of a generated EPUB.
type Chapter struct {
	// TOCTitle is the table-of-contents label; empty leaves the chapter out of the TOC.
	TOCTitle string
	// Heading is rendered as an h1 when set.
	Heading string
	// Subheading is rendered as an h2 when set.
	Subheading string
	Body       string
	// OutsideSpine lists the document in the manifest only.
	OutsideSpine bool
}

// EPUB writes an EPUB 2 book into dir and returns its path.
// With no TOC titles at all the book carries no navigation file.
func EPUB(t testing.TB, dir, name string, chapters []Chapter) string {
	t.Helper()

	hasTOC := false
	for _, ch := range chapters {
		if ch.TOCTitle != "" {
			hasTOC = true
		}
	}

	var manifest, spine, navPoints strings.Builder
	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
	}

	play := 0
	for i, ch := range chapters {
		id := fmt.Sprintf("ch%d", i+1)
		href := fmt.Sprintf("chapter%02d.xhtml", i+1)
		fmt.Fprintf(&manifest, "    <item id=%q href=%q media-type=\"application/xhtml+xml\"/>\n", id, href)
		if !ch.OutsideSpine {
			fmt.Fprintf(&spine, "    <itemref idref=%q/>\n", id)
		}
		if ch.TOCTitle != "" {
			play++
			fmt.Fprintf(&navPoints, "    <navPoint id=\"np%d\" playOrder=\"%d\"><navLabel><text>%s</text></navLabel><content src=%q/></navPoint>\n",
				play, play, escapeXML(ch.TOCTitle), href)
		}
		files["OEBPS/"+href] = chapterXHTML(ch)
	}

	tocAttr := ""
	if hasTOC {
		manifest.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
		tocAttr = ` toc="ncx"`
		files["OEBPS/toc.ncx"] = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
` + navPoints.String() + `  </navMap>
</ncx>`
	}

	files["OEBPS/content.opf"] = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Fixture Book</dc:title>
    <dc:language>en</dc:language>
    <dc:identifier id="uid">fixture-001</dc:identifier>
  </metadata>
  <manifest>
` + manifest.String() + `  </manifest>
  <spine` + tocAttr + `>
` + spine.String() + `  </spine>
</package>`

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype: %v", err)
	}
	if _, err := fw.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("failed to write mimetype: %v", err)
	}
	for name, content := range files {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write epub: %v", err)
	}
	return path
}

func chapterXHTML(ch Chapter) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head></head>
<body>
`)
	if ch.Heading != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>\n", escapeXML(ch.Heading))
	}
	if ch.Subheading != "" {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", escapeXML(ch.Subheading))
	}
	if ch.Body != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", escapeXML(ch.Body))
	}
	b.WriteString("</body>\n</html>")
	return b.String()
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// PDF writes a PDF with one page per entry into dir and returns its path.
// Each page entry is split on newlines into text lines; an empty entry
// produces a page without text.
func PDF(t testing.TB, dir, name string, pages []string) string {
	t.Helper()

	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	objects = append(objects, fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths))

	for i, page := range pages {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))

		var content strings.Builder
		if page != "" {
			y := 720
			for _, line := range strings.Split(page, "\n") {
				fmt.Fprintf(&content, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", y, escapePDF(line))
				y -= 14
			}
		}
		stream := content.String()
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write pdf: %v", err)
	}
	return path
}

func escapePDF(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
