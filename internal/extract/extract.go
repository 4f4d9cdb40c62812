package extract

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"image"
	"io"
	"sort"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Extract converts an uploaded document into plain text. It never fails:
// parse errors, unsupported formats and binary content all come back as
// descriptive placeholder strings so context assembly can proceed with
// whatever is available.
func Extract(doc Document) string {
	var text string
	var err error

	switch doc.Format {
	case FormatText:
		text = string(doc.Data)
	case FormatPDF:
		text, err = extractPDF(doc.Data)
	case FormatDocx:
		text, err = extractDocx(doc.Data)
	case FormatXLSX:
		text, err = extractXLSX(doc.Data)
	case FormatODS:
		text, err = extractODS(doc.Data)
	case FormatCSV:
		text, err = extractCSV(doc.Data)
	case FormatPPTX:
		text, err = extractPPTX(doc.Data)
	case FormatImage:
		return describeImage(doc)
	case FormatMedia:
		return fmt.Sprintf("[media file %s: audio/video content is not analyzed]", doc.Name)
	default:
		return fmt.Sprintf("[unsupported file type %q: %s]", doc.Ext, doc.Name)
	}

	if err != nil {
		log.Warn().Err(err).Str("file", doc.Name).Str("format", doc.Format.String()).
			Msg("extraction failed, using placeholder")
		return fmt.Sprintf("[could not extract text from %s: %v]", doc.Name, err)
	}
	if strings.TrimSpace(text) == "" {
		if doc.Format == FormatText {
			return fmt.Sprintf("[empty file: %s]", doc.Name)
		}
		return fmt.Sprintf("[no text content found in %s]", doc.Name)
	}
	return text
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on malformed cross-references and objects
	// instead of returning errors; only GetPlainText recovers internally.
	// Catch everything here so a corrupt file degrades to a placeholder.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDocx(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, para := range strings.Split(content, "</w:p>") {
		runs := xmlTagText(para, "w:t")
		if len(runs) == 0 {
			continue
		}
		p := strings.TrimSpace(strings.Join(runs, ""))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func extractXLSX(data []byte) (string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, sheet := range f.Sheets {
		sb.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			sb.WriteString(strings.Join(cells, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractODS(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(strings.Join(record, "\t"))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	slides := map[int]string{}
	var order []int
	for _, file := range zr.File {
		num, ok := slideNumber(file.Name)
		if !ok {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		shapes := xmlTagText(string(raw), "a:t")
		slides[num] = strings.Join(shapes, "\n")
		order = append(order, num)
	}

	sort.Ints(order)
	var parts []string
	for _, num := range order {
		if strings.TrimSpace(slides[num]) != "" {
			parts = append(parts, slides[num])
		}
	}
	return strings.Join(parts, "\n"), nil
}

func describeImage(doc Document) string {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(doc.Data))
	if err != nil {
		return fmt.Sprintf("[image file %s: could not read dimensions: %v]", doc.Name, err)
	}
	return fmt.Sprintf("[image file %s: %s, %dx%d pixels, no text extracted]", doc.Name, format, cfg.Width, cfg.Height)
}

// slideNumber reports the 1-based slide number for pptx zip entries like
// "ppt/slides/slide12.xml".
func slideNumber(name string) (int, bool) {
	const prefix = "ppt/slides/slide"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".xml") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".xml")
	num, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return num, true
}

// xmlTagText pulls the character data of every <tag>...</tag> element out of
// a raw XML string. Good enough for the OOXML text runs we care about; a full
// XML parse is not needed to concatenate them.
func xmlTagText(content, tag string) []string {
	var texts []string
	closing := "</" + tag + ">"
	rest := content
	for {
		start := strings.Index(rest, "<"+tag)
		if start < 0 {
			break
		}
		rest = rest[start+len(tag)+1:]
		// The match must be the whole tag name, not a prefix of another.
		// Self-closing runs carry no text.
		if rest == "" || (rest[0] != '>' && rest[0] != ' ') {
			continue
		}
		open := strings.Index(rest, ">")
		if open < 0 {
			break
		}
		selfClosing := open > 0 && rest[open-1] == '/'
		rest = rest[open+1:]
		if selfClosing {
			continue
		}
		end := strings.Index(rest, closing)
		if end < 0 {
			break
		}
		texts = append(texts, unescapeXML(rest[:end]))
		rest = rest[end+len(closing):]
	}
	return texts
}

func unescapeXML(s string) string {
	r := strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&apos;", "'")
	return r.Replace(s)
}
