package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	truncatedStringEnd = " ..."
	maxLength          = 40
	maxMultiLineLength = 500
)

// PrintResult renders a response body: row sets as a table, strings as plain
// lines, error bodies prefixed with "Error:" and anything else as indented
// JSON.
func PrintResult(w io.Writer, body json.RawMessage) error {
	if msg, ok := ParseError(body); ok {
		_, err := fmt.Fprintf(w, "Error: %s\n", msg)
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	switch v := value.(type) {
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case []any:
		if rows, ok := asRows(v); ok {
			printRows(w, rows)
			return nil
		}
	}

	indented, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", indented)
	return err
}

func asRows(values []any) ([]map[string]any, bool) {
	rows := make([]map[string]any, 0, len(values))
	for _, v := range values {
		aRow, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, aRow)
	}
	return rows, true
}

func printRows(w io.Writer, rows []map[string]any) {
	columns := rowColumns(rows)
	if len(columns) == 0 {
		fmt.Fprintf(w, "(%d rows)\n", len(rows))
		return
	}

	columnSize := computeTableSize(columns, rows)
	PrintTableHeader(w, columns, columnSize)
	for _, aRow := range rows {
		values := make([]any, 0, len(columns))
		for _, column := range columns {
			values = append(values, aRow[column])
		}
		PrintTableRow(w, columnSize, values)
	}
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

// rowColumns returns the union of row keys, "id" first and the rest sorted.
func rowColumns(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	columns := []string{}
	for _, aRow := range rows {
		for column := range aRow {
			if _, ok := seen[column]; ok {
				continue
			}
			seen[column] = struct{}{}
			columns = append(columns, column)
		}
	}
	sort.Slice(columns, func(i, j int) bool {
		if columns[i] == "id" || columns[j] == "id" {
			return columns[i] == "id"
		}
		return columns[i] < columns[j]
	})
	return columns
}

func PrintTableHeader(w io.Writer, columns []string, columnSize []int) {
	for i, column := range columns {
		// pad with columnSize[i] spaces on the right (left-justify the field)
		fmt.Fprintf(w, " %-*s ", columnSize[i], column)
		if i != len(columns)-1 {
			fmt.Fprint(w, "|")
		}
	}
	fmt.Fprint(w, "\n")

	// horizontal border below the header row
	for i, size := range columnSize {
		fmt.Fprint(w, strings.Repeat("-", size+2))
		if i != len(columnSize)-1 {
			fmt.Fprint(w, "+")
		}
	}
	fmt.Fprint(w, "\n")
}

func PrintTableRow(w io.Writer, columnSize []int, values []any) {
	rows := make([][]string, 0, 1)
	rows = append(rows, make([]string, len(values)))
	for i, aValue := range values {
		aStringValue := formatValue(aValue)

		r := []rune(aStringValue)
		if len(r) < maxLength {
			rows[0][i] = aStringValue
			continue
		}
		if len(r) >= maxMultiLineLength {
			aStringValue = string(r[0:maxMultiLineLength-len(truncatedStringEnd)]) + truncatedStringEnd
		}
		for _, line := range splitStringIntoLines(aStringValue, maxLength) {
			added := false
			for _, aRow := range rows {
				if aRow[i] == "" {
					aRow[i] = line
					added = true
					break
				}
			}
			if !added {
				rows = append(rows, make([]string, len(values)))
				rows[len(rows)-1][i] = line
			}
		}
	}

	for _, aRow := range rows {
		for j, aCell := range aRow {
			fmt.Fprintf(w, " %-*s ", columnSize[j], aCell)
			if j != len(aRow)-1 {
				fmt.Fprint(w, "|")
			}
		}
		fmt.Fprint(w, "\n")
	}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	}
}

func splitStringIntoLines(text string, maxWidth int) []string {
	if len(text) == 0 {
		return []string{""}
	}

	lines := strings.Split(text, "\n")
	finalLines := make([]string, 0, len(lines))

	for _, line := range lines {
		runes := []rune(line)
		if len(runes) <= maxWidth {
			finalLines = append(finalLines, line)
			continue
		}
		for i := 0; i < len(runes); i += maxWidth {
			end := min(i+maxWidth, len(runes))
			finalLines = append(finalLines, string(runes[i:end]))
		}
	}

	return finalLines
}

// computeTableSize sizes each column to its widest cell, capped at maxLength.
func computeTableSize(columns []string, rows []map[string]any) []int {
	columnSize := make([]int, len(columns))
	for i, column := range columns {
		columnSize[i] = utf8.RuneCountInString(column)
		for _, aRow := range rows {
			width := min(utf8.RuneCountInString(formatValue(aRow[column])), maxLength)
			if width > columnSize[i] {
				columnSize[i] = width
			}
		}
	}
	return columnSize
}
