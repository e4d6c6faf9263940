package forminput

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Markers written by the exposure CSV export; an import of an exported file
// must skip them.
var (
	sectionMarkers = []string{"INFORMAZIONI GENERALI", "DATI DI MISURAZIONE", "Calcolo Esposizione", "GENERAL INFORMATION", "MEASUREMENT DATA"}
	headerMarkers  = []string{"Attività", "AttivitÃ", "Activity", "LEQ dB", "Mansione,", "MANSIONE,", "Reparto,", "Job,", "Department,"}
	resultMarkers  = []string{"RISULTATI", "RESULTS", "LEX 8h"}

	activityNumbering = regexp.MustCompile(`^\d+\s*[-–—]\s*`)
	nonNumeric        = regexp.MustCompile(`[^\d.]`)
)

// DetectSeparator guesses the field separator from the first five lines:
// tab when it outnumbers both others, semicolon when it outnumbers commas,
// comma otherwise.
func DetectSeparator(text string) rune {
	lines := strings.SplitN(text, "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	head := strings.Join(lines, "\n")
	commas := strings.Count(head, ",")
	semicolons := strings.Count(head, ";")
	tabs := strings.Count(head, "\t")
	switch {
	case tabs > commas && tabs > semicolons:
		return '\t'
	case semicolons > commas:
		return ';'
	default:
		return ','
	}
}

// ImportCSV reads measurement rows from a spreadsheet export. Section titles
// and header lines are skipped and reading stops at the results section.
// Lines whose activity is shorter than three characters are dropped.
func ImportCSV(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")
	sep := DetectSeparator(text)

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan csv: %w", err)
	}

	var rows []Row
	headerFound := false
	for i, line := range lines {
		if containsAny(line, sectionMarkers) {
			continue
		}
		if containsAny(line, headerMarkers) {
			headerFound = true
			continue
		}
		if containsAny(line, resultMarkers) {
			break
		}
		if !headerFound && i == 0 {
			continue
		}

		fields := splitQuoted(line, sep)
		if len(fields) < 2 {
			continue
		}
		row, ok := rowFromFields(fields)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func rowFromFields(fields []string) (Row, bool) {
	activity := strings.Trim(fields[0], `"`)
	activity = strings.TrimSpace(activityNumbering.ReplaceAllString(activity, ""))
	if utf8.RuneCountInString(activity) <= 2 {
		return Row{}, false
	}

	type number struct {
		text  string
		value float64
	}
	var numbers []number
	for _, f := range fields[1:] {
		cleaned := nonNumeric.ReplaceAllString(strings.ReplaceAll(f, ",", "."), "")
		if v := ParseNumber(cleaned); v != nil && *v >= 0 {
			numbers = append(numbers, number{text: cleaned, value: *v})
		}
	}

	row := Row{Activity: activity}
	switch {
	case len(numbers) >= 2:
		// Sheets list either "LEQ, minutes" or "minutes, LEQ"; a first value
		// in the plausible dB(A) range is taken as the level.
		if numbers[0].value > 50 && numbers[0].value < 120 {
			row.Level, row.Duration = numbers[0].text, numbers[1].text
		} else {
			row.Duration, row.Level = numbers[0].text, numbers[1].text
		}
		if len(numbers) >= 3 {
			row.Peak = numbers[2].text
		}
	case len(numbers) == 1:
		row.Level = numbers[0].text
	}
	return row, true
}

// splitQuoted splits on sep outside double quotes; quotes are dropped.
func splitQuoted(line string, sep rune) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			quoted = !quoted
		case ch == sep && !quoted:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
