// Package loader reads raw candidate datasets from disk into the
// attribute-value records fusion consumes. It maps source columns onto
// canonical keys but performs no type coercion; fusion owns shape.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwhitfield/carematch/internal/types"
)

// Column maps one CSV header onto a record key. List columns hold
// semicolon-separated values and load as string slices.
type Column struct {
	Key  string
	List bool
}

// Options control CSV header mapping. Headers are matched
// case-insensitively after trimming; unmapped headers pass through under
// their own name, which fusion canonicalises anyway.
type Options struct {
	Columns map[string]Column
}

// DefaultOptions maps the regulator export layout and the directory
// export's price columns.
func DefaultOptions() Options {
	return Options{Columns: map[string]Column{
		"location name":                 {Key: "name"},
		"location post code":            {Key: "postcode"},
		"postal code":                   {Key: "postcode"},
		"location street address":       {Key: "address_line"},
		"address line 1":                {Key: "address_line"},
		"location region":               {Key: "region"},
		"main phone number":             {Key: "phone"},
		"phone number":                  {Key: "phone"},
		"location latitude":             {Key: "latitude"},
		"location longitude":            {Key: "longitude"},
		"location last inspection date": {Key: "last_inspection"},
		"last inspection date":          {Key: "last_inspection"},
		"latest rating":                 {Key: "rating_overall"},
		"overall rating":                {Key: "rating_overall"},
		"safe rating":                   {Key: "rating_safe"},
		"effective rating":              {Key: "rating_effective"},
		"caring rating":                 {Key: "rating_caring"},
		"responsive rating":             {Key: "rating_responsive"},
		"well-led rating":               {Key: "rating_well_led"},
		"care homes beds":               {Key: "beds"},
		"care home beds":                {Key: "beds"},

		"service user bands":   {Key: "service_user_bands", List: true},
		"regulated activities": {Key: "regulated_activities", List: true},
		"amenities":            {Key: "amenities", List: true},

		"weekly price residential":          {Key: "price_residential"},
		"weekly price nursing":              {Key: "price_nursing"},
		"weekly price dementia residential": {Key: "price_dementia_residential"},
		"weekly price dementia nursing":     {Key: "price_dementia_nursing"},
	}}
}

// Report notes what a load skipped so callers can surface data quality.
type Report struct {
	Rows     int
	Skipped  int
	Problems []string
}

// Load reads one dataset file, dispatching on its extension.
func Load(path string, opts Options) ([]types.RawRecord, *Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, opts)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, nil, fmt.Errorf("unsupported dataset format %q (want .csv or .json)", filepath.Ext(path))
	}
}

// LoadCSV reads a header-mapped CSV export. Rows with a mangled shape are
// skipped and reported, never fatal; a missing or unreadable file is.
func LoadCSV(path string, opts Options) ([]types.RawRecord, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	records, report, err := ReadCSV(f, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return records, report, nil
}

// ReadCSV consumes CSV content from any reader. The first row is the
// header.
func ReadCSV(r io.Reader, opts Options) ([]types.RawRecord, *Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make([]Column, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if c, ok := opts.Columns[name]; ok {
			cols[i] = c
		} else {
			cols[i] = Column{Key: strings.TrimSpace(h)}
		}
	}

	report := &Report{}
	var records []types.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Skipped++
				report.Problems = append(report.Problems, fmt.Sprintf("line %d: %v", parseErr.Line, parseErr.Err))
				continue
			}
			return nil, nil, fmt.Errorf("reading row: %w", err)
		}

		rec := types.RawRecord{}
		for i, val := range row {
			if i >= len(cols) {
				break
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			if cols[i].List {
				rec[cols[i].Key] = splitList(val)
			} else {
				rec[cols[i].Key] = val
			}
		}
		if len(rec) == 0 {
			report.Skipped++
			report.Problems = append(report.Problems, "empty row")
			continue
		}

		report.Rows++
		records = append(records, rec)
	}

	return records, report, nil
}

// LoadJSON reads a JSON array of attribute-value objects. Elements that
// are not objects are skipped and reported; a file that is not a JSON
// array at all is fatal.
func LoadJSON(path string) ([]types.RawRecord, *Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset: %w", err)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	report := &Report{}
	records := make([]types.RawRecord, 0, len(elems))
	for i, raw := range elems {
		var rec types.RawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.Skipped++
			report.Problems = append(report.Problems, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		report.Rows++
		records = append(records, rec)
	}

	return records, report, nil
}

// splitList breaks a semicolon-separated cell into its entries.
func splitList(val string) []string {
	parts := strings.Split(val, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
