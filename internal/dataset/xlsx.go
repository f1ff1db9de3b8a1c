package dataset

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

type xlsxWorkbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxRels struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (x xlsxText) String() string {
	if len(x.Runs) == 0 {
		return x.T
	}
	var sb strings.Builder
	for _, r := range x.Runs {
		sb.WriteString(r.T)
	}
	return sb.String()
}

type xlsxSharedStrings struct {
	Items []xlsxText `xml:"si"`
}

type xlsxSheet struct {
	Rows []struct {
		Cells []struct {
			Ref    string   `xml:"r,attr"`
			Type   string   `xml:"t,attr"`
			Value  string   `xml:"v"`
			Inline xlsxText `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// LoadXLSX reads one worksheet of an .xlsx workbook. The first row is the
// header. Sheets are chosen by Options.SheetName, then Options.SheetIndex
// (1-based), then the first sheet. Cell styles are ignored, so date cells
// arrive as Excel serial numbers.
func LoadXLSX(filename string, opt Options) (*Dataset, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, &DataAccessError{Source: filename, Err: err}
	}
	defer zr.Close()

	rows, err := readSheetRows(&zr.Reader, opt)
	if err != nil {
		return nil, &DataAccessError{Source: filename, Err: err}
	}
	if len(rows) == 0 {
		return nil, &DataAccessError{Source: filename, Err: ErrNoData}
	}
	ds, err := buildFromRows(rows[0], func(yield func([]string) bool) error {
		for _, r := range rows[1:] {
			if !yield(r) {
				break
			}
		}
		return nil
	}, opt)
	if err != nil {
		return nil, &DataAccessError{Source: filename, Err: err}
	}
	return ds, nil
}

func readSheetRows(zr *zip.Reader, opt Options) ([][]string, error) {
	var wb xlsxWorkbook
	if err := decodeZipXML(zr, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	var rels xlsxRels
	if err := decodeZipXML(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Rels))
	for _, r := range rels.Rels {
		targets[r.ID] = sheetPath(r.Target)
	}

	target := ""
	switch {
	case opt.SheetName != "":
		names := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, opt.SheetName) {
				target = targets[s.RID]
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet %q not found (available: %s)", opt.SheetName, strings.Join(names, ", "))
		}
	default:
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range wb.Sheets {
			if s.SheetID == idx {
				target = targets[s.RID]
				break
			}
		}
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}

	var shared xlsxSharedStrings
	if err := decodeZipXML(zr, "xl/sharedStrings.xml", &shared); err != nil {
		return nil, err
	}
	var sheet xlsxSheet
	if !hasZipFile(zr, target) {
		return nil, fmt.Errorf("worksheet %s missing from workbook", target)
	}
	if err := decodeZipXML(zr, target, &sheet); err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		var cells []string
		for pos, c := range row.Cells {
			col := pos
			if c.Ref != "" {
				col = colIndexFromRef(c.Ref)
			}
			if col < 0 {
				continue
			}
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = cellText(c.Type, c.Value, c.Inline, shared.Items)
		}
		out = append(out, cells)
	}
	return out, nil
}

func cellText(typ, v string, inline xlsxText, shared []xlsxText) string {
	switch typ {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i].String()
	case "inlineStr":
		return inline.String()
	case "b":
		if strings.TrimSpace(v) == "1" {
			return "true"
		}
		return "false"
	default:
		return v
	}
}

// decodeZipXML unmarshals the named entry into dst. A missing entry leaves
// dst untouched.
func decodeZipXML(zr *zip.Reader, name string, dst any) error {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		if err := xml.NewDecoder(rc).Decode(dst); err != nil && err != io.EOF {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	}
	return nil
}

func hasZipFile(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

// sheetPath turns a workbook relationship target into a zip entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func sheetPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

// colIndexFromRef maps an A1-style reference to a 0-based column index.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}
