package importing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\xEF\xBB\xBF"

// Parse decodes the raw export content into rows. Malformed lines never abort
// the parse; they come back as rows with ParseError set. Parsing the same
// content twice yields an identical sequence, which is what makes dry runs a
// trustworthy preview.
func Parse(content string) []RawRow {
	content = strings.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false

	var rows []RawRow
	first := true
	lastLine := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sourceLine := lastLine + 1
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				sourceLine = pe.Line
			}
			rows = append(rows, RawRow{
				Line:       sourceLine,
				ParseError: fmt.Sprintf("malformed row: %v", err),
			})
			first = false
			lastLine = sourceLine
			continue
		}
		// FieldPos reports where the record begins in the source, so row
		// numbers stay accurate across quoted fields that span lines.
		line, _ := r.FieldPos(0)
		lastLine = line
		if first && isHeader(record) {
			first = false
			continue
		}
		first = false
		rows = append(rows, toRawRow(line, record))
	}
	return rows
}

// isHeader recognizes the export tool's header line so it is not treated as
// a failed data row.
func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "legacy_user_id")
}

func toRawRow(line int, record []string) RawRow {
	// Ragged rows are expected: missing trailing columns read as empty.
	fields := make([]string, columnCount)
	copy(fields, record)
	return RawRow{
		Line:         line,
		LegacyUserID: fields[colLegacyUserID],
		Email:        fields[colEmail],
		FirstName:    fields[colFirstName],
		LastName:     fields[colLastName],
		SchoolName:   fields[colSchoolName],
		Country:      fields[colCountry],
		Stage1:       fields[colStage1],
	}
}
