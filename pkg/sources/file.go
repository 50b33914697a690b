package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/records"
)

// Accepted header spellings per canonical column.
var columnAliases = map[string][]string{
	records.ColumnParameterName: {"parameter_name", "parameter", "item_name", "name"},
	records.ColumnValue:         {"value", "default_value", "setting"},
	records.ColumnMinSpec:       {"min_spec", "min", "lower_limit"},
	records.ColumnMaxSpec:       {"max_spec", "max", "upper_limit"},
	"module":                    {"module", "module_name"},
	"part_id":                   {"part_id", "part"},
	"item_type":                 {"item_type", "type"},
	"unit":                      {"unit", "units"},
	"is_checklist":              {"is_checklist", "checklist"},
}

// FileProvider loads datasets from CSV, YAML or JSON files. The source ID is
// the file path unless a YAML/JSON document declares its own source_id.
type FileProvider struct {
	// BaseDir, when set, confines loading to files below it: source IDs
	// must be relative paths that stay inside BaseDir.
	BaseDir string
}

// NewFileProvider creates a file provider that accepts any path.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// NewFileProviderAt creates a file provider confined to dir.
func NewFileProviderAt(dir string) *FileProvider {
	if dir == "" {
		dir = "."
	}
	return &FileProvider{BaseDir: dir}
}

// resolve maps a source ID to a file path.
func (p *FileProvider) resolve(sourceID string) (string, error) {
	if p.BaseDir == "" {
		return sourceID, nil
	}
	if filepath.IsAbs(sourceID) || !filepath.IsLocal(sourceID) {
		return "", errors.NewLoadError(sourceID, "path outside the source directory", nil)
	}
	return filepath.Join(p.BaseDir, sourceID), nil
}

// Load implements Provider.
func (p *FileProvider) Load(ctx context.Context, sourceID string) (records.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return records.Dataset{}, errors.WrapLoad(sourceID, err)
	}

	path, err := p.resolve(sourceID)
	if err != nil {
		return records.Dataset{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return records.Dataset{}, errors.NewLoadError(sourceID, "unreadable source", errors.WrapIO("read", path, err))
	}

	var ds records.Dataset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		ds, err = parseCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		ds, err = parseDocument(data, yaml.Unmarshal)
	case ".json":
		ds, err = parseDocument(data, json.Unmarshal)
	default:
		return records.Dataset{}, errors.NewLoadError(sourceID, "unsupported format "+ext, nil)
	}
	if err != nil {
		return records.Dataset{}, errors.NewLoadError(sourceID, "malformed source", err)
	}

	if ds.SourceID == "" {
		ds.SourceID = sourceID
	}
	ds.SizeBytes = int64(len(data))
	return ds, nil
}

// parseCSV reads a header row and maps aliased columns onto record fields.
func parseCSV(r io.Reader) (records.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return records.Dataset{}, nil
	}
	if err != nil {
		return records.Dataset{}, err
	}

	index := make(map[string]int)
	var columns []string
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for canonical, aliases := range columnAliases {
			if _, done := index[canonical]; done {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					index[canonical] = i
					columns = append(columns, canonical)
				}
			}
		}
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	ds := records.Dataset{Columns: columns}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records.Dataset{}, err
		}
		ds.Records = append(ds.Records, buildRecord(rawRecord{
			ParameterName: cell(row, records.ColumnParameterName),
			Value:         cell(row, records.ColumnValue),
			MinSpec:       cell(row, records.ColumnMinSpec),
			MaxSpec:       cell(row, records.ColumnMaxSpec),
			Module:        cell(row, "module"),
			PartID:        cell(row, "part_id"),
			ItemType:      cell(row, "item_type"),
			Unit:          cell(row, "unit"),
			IsChecklist:   cell(row, "is_checklist"),
		}))
	}
	return ds, nil
}

// rawRecord is the loosely typed shape of a record in a source file.
type rawRecord struct {
	ParameterName any `json:"parameter_name" yaml:"parameter_name"`
	Value         any `json:"value" yaml:"value"`
	MinSpec       any `json:"min_spec" yaml:"min_spec"`
	MaxSpec       any `json:"max_spec" yaml:"max_spec"`
	Module        any `json:"module" yaml:"module"`
	PartID        any `json:"part_id" yaml:"part_id"`
	ItemType      any `json:"item_type" yaml:"item_type"`
	Unit          any `json:"unit" yaml:"unit"`
	IsChecklist   any `json:"is_checklist" yaml:"is_checklist"`
}

type rawDocument struct {
	SourceID string      `json:"source_id" yaml:"source_id"`
	Columns  []string    `json:"columns" yaml:"columns"`
	Records  []rawRecord `json:"records" yaml:"records"`
}

// parseDocument accepts either {source_id, records: [...]} or a bare list.
func parseDocument(data []byte, unmarshal func([]byte, any) error) (records.Dataset, error) {
	var doc rawDocument
	if err := unmarshal(data, &doc); err != nil {
		var list []rawRecord
		if listErr := unmarshal(data, &list); listErr != nil {
			return records.Dataset{}, err
		}
		doc = rawDocument{Records: list}
	}

	ds := records.Dataset{SourceID: doc.SourceID, Columns: doc.Columns}
	for _, raw := range doc.Records {
		ds.Records = append(ds.Records, buildRecord(raw))
	}
	return ds, nil
}

func buildRecord(raw rawRecord) records.ParameterRecord {
	rec := records.ParameterRecord{
		ParameterName: stringify(raw.ParameterName),
		Value:         stringify(raw.Value),
		Module:        stringify(raw.Module),
		PartID:        stringify(raw.PartID),
		ItemType:      stringify(raw.ItemType),
		Unit:          stringify(raw.Unit),
	}
	rec.IsChecklist, _ = strconv.ParseBool(strings.TrimSpace(stringify(raw.IsChecklist)))

	minRaw, maxRaw := stringify(raw.MinSpec), stringify(raw.MaxSpec)
	if v, err := records.ParseBound(rec.ParameterName, records.ColumnMinSpec, minRaw); err == nil {
		rec.MinSpec = v
	} else {
		rec.RawMinSpec = minRaw
	}
	if v, err := records.ParseBound(rec.ParameterName, records.ColumnMaxSpec, maxRaw); err == nil {
		rec.MaxSpec = v
	} else {
		rec.RawMaxSpec = maxRaw
	}
	return rec
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
