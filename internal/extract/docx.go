package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

func (e *Extractor) extractDOCX(logger *slog.Logger, doc Document) Result {
	res := Result{Method: "docx"}
	text, err := docxText(doc.Data)
	if err != nil {
		logger.Warn("extract.docx.failed", "filename", doc.Name, "error", err)
		res.Warnings = append(res.Warnings, "docx: "+err.Error())
		return res
	}
	res.Text = text
	return res
}

// docxText joins every paragraph of word/document.xml with newlines.
func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	paras, err := paragraphs(r.Editable().GetContent())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(paras, "\n")), nil
}

// paragraphs walks WordprocessingML and returns the text of each w:p in
// document order. Runs are concatenated; w:tab becomes a tab.
func paragraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		out    []string
		cur    strings.Builder
		depth  int // nesting of w:p, textboxes can nest paragraphs
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					cur.WriteByte('\t')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth > 0 {
					depth--
					if depth == 0 {
						out = append(out, cur.String())
					}
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return out, nil
}
