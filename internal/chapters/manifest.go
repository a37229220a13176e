package chapters

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"

	"github.com/simp-lee/epub"
)

const containerPath = "META-INF/container.xml"

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageManifest struct {
	Items []struct {
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
}

// manifestDocuments returns the archive paths of every XHTML document in
// the package manifest, in manifest order. Documents outside the spine are
// included.
func manifestDocuments(book *epub.Book) ([]string, error) {
	data, err := book.ReadFile(containerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse container: %w", err)
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("container lists no package document")
	}

	opfPath := c.Rootfiles[0].FullPath
	data, err = book.ReadFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read package document: %w", err)
	}
	var pkg packageManifest
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package document: %w", err)
	}

	dir := path.Dir(opfPath)
	var docs []string
	for _, item := range pkg.Items {
		if item.MediaType != "application/xhtml+xml" || item.Href == "" {
			continue
		}
		href := item.Href
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		docs = append(docs, path.Join(dir, href))
	}
	return docs, nil
}
