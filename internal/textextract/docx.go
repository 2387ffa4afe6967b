package textextract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

func extractDOCX(path string) (Result, error) {
	res := Result{Method: "docx-xml", Pages: 1}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrParse, err)
		}
		defer rc.Close()
		text, err := docxParagraphs(rc)
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrParse, err)
		}
		res.Text = text
		return res, nil
	}
	return res, fmt.Errorf("%w: %s missing", ErrParse, docxBody)
}

// docxParagraphs walks w:p / w:t / w:tab / w:br and emits one line per paragraph.
func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
