// Package export turns a finished roster into shareable artifacts: a
// legacy .xls workbook (an HTML table Excel accepts) and a plain-text
// summary for messaging.
package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aksoyhq/dutyroster/internal/model"
)

const worksheetName = "Personel Listesi"

var workbookHeaders = []string{"Sıra", "Sicil", "Ad Soyad", "Rütbe", "T.C. Kimlik No", "Doğum Tarihi", "Telefon"}

// WorkbookBytes renders the roster as a single-worksheet .xls document, one
// row per entry in roster order.
func WorkbookBytes(entries []model.Personnel) []byte {
	var b bytes.Buffer
	b.WriteString(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:x="urn:schemas-microsoft-com:office:excel" xmlns="http://www.w3.org/TR/REC-html40">`)
	b.WriteString(`<head><!--[if gte mso 9]><xml><x:ExcelWorkbook><x:ExcelWorksheets><x:ExcelWorksheet><x:Name>`)
	b.WriteString(worksheetName)
	b.WriteString(`</x:Name><x:WorksheetOptions><x:DisplayGridlines/></x:WorksheetOptions></x:ExcelWorksheet></x:ExcelWorksheets></x:ExcelWorkbook></xml><![endif]--><meta charset="utf-8"></head><body>`)
	b.WriteString("<table><thead><tr>")
	for _, h := range workbookHeaders {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(h))
	}
	b.WriteString("</tr></thead><tbody>")
	for i, p := range entries {
		b.WriteString("<tr>")
		writeCell(&b, fmt.Sprintf("%d", i+1))
		writeCell(&b, p.Sicil)
		writeCell(&b, p.FullName())
		writeCell(&b, p.Rank)
		writeCell(&b, p.NationalID)
		writeCell(&b, p.BirthDate)
		writeCell(&b, p.Phone)
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.Bytes()
}

func writeCell(b *bytes.Buffer, value string) {
	fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(value))
}

// WriteWorkbook saves the artifact under dir as "<event> Listesi.xls" and
// returns the written path.
func WriteWorkbook(dir, eventName string, entries []model.Personnel) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	name := fmt.Sprintf("%s Listesi.xls", sanitizeFileName(eventName))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, WorkbookBytes(entries), 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}

// Row is one parsed data row of a workbook artifact.
type Row struct {
	Sequence   string
	Sicil      string
	FullName   string
	Rank       string
	NationalID string
	BirthDate  string
	Phone      string
}

// ReadWorkbook parses a workbook artifact back into its data rows. The
// header row is not included.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	var (
		rows    []Row
		cells   []string
		inCell  bool
		current strings.Builder
	)
	flushRow := func() {
		if len(cells) < len(workbookHeaders) {
			cells = nil
			return
		}
		rows = append(rows, Row{
			Sequence:   cells[0],
			Sicil:      cells[1],
			FullName:   cells[2],
			Rank:       cells[3],
			NationalID: cells[4],
			BirthDate:  cells[5],
			Phone:      cells[6],
		})
		cells = nil
	}
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export: parse workbook: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "td" {
				inCell = true
				current.Reset()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "td":
				inCell = false
				cells = append(cells, strings.TrimSpace(current.String()))
			case "tr":
				flushRow()
			}
		case xml.CharData:
			if inCell {
				current.Write(t)
			}
		}
	}
	return rows, nil
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Görev"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "")
	return replacer.Replace(name)
}
