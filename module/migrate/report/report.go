// Package report persists discovered artifacts as an NDJSON stream and a CSV summary
// derived from it, and reads both back.
package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/util/common/errors"
)

// ListSeparator joins tags and platforms inside a single CSV field.
const ListSeparator = "|"

const filePrefix = "harbor_artifacts_"

// Header is the fixed CSV column order.
var Header = []string{
	"project", "repository", "digest", "push_time", "manifest_media_type", "tags", "platforms", "size",
}

// requiredColumns is the header prefix every readable report must carry; size is optional.
const requiredColumns = 7

// Result names the files written for one discovery run.
type Result struct {
	NDJSONPath string
	CSVPath    string
	Records    int
}

// Row is one parsed CSV data row. Line is the 1-based line number in the file.
type Row struct {
	Line   int
	Record types.ArtifactRecord
}

type Writer struct {
	fs  afero.Fs
	dir string
}

func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

func (w *Writer) NDJSONPath(project string) string {
	return filepath.Join(w.dir, filePrefix+project+".ndjson")
}

func (w *Writer) CSVPath(project string) string {
	return filepath.Join(w.dir, filePrefix+project+".csv")
}

// Write truncates the NDJSON stream, writes one record per line in the given order and
// then regenerates the CSV from the stream.
func (w *Writer) Write(project string, records []types.ArtifactRecord) (Result, error) {
	res := Result{NDJSONPath: w.NDJSONPath(project), CSVPath: w.CSVPath(project)}

	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return res, errors.NewFileError(w.dir, "mkdir", err)
	}

	f, err := w.fs.Create(res.NDJSONPath)
	if err != nil {
		return res, errors.NewFileError(res.NDJSONPath, "create", err)
	}
	bw := bufio.NewWriter(f)
	if err := encodeNDJSON(bw, records); err != nil {
		_ = f.Close()
		return res, errors.NewFileError(res.NDJSONPath, "write", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return res, errors.NewFileError(res.NDJSONPath, "write", err)
	}
	if err := f.Close(); err != nil {
		return res, errors.NewFileError(res.NDJSONPath, "close", err)
	}

	n, err := RebuildCSV(w.fs, res.NDJSONPath, res.CSVPath)
	if err != nil {
		return res, err
	}
	res.Records = n
	return res, nil
}

func encodeNDJSON(w io.Writer, records []types.ArtifactRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		if rec.Platforms == nil {
			rec.Platforms = []string{}
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// RebuildCSV regenerates csvPath from the NDJSON stream. The old CSV is never read; the
// new one is written next to it and renamed into place.
func RebuildCSV(fs afero.Fs, ndjsonPath, csvPath string) (int, error) {
	records, err := ReadNDJSON(fs, ndjsonPath)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}
	for _, rec := range records {
		if err := cw.Write(toRow(rec)); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, errors.NewFileError(csvPath, "encode", err)
	}

	tmp := csvPath + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0o644); err != nil {
		return 0, errors.NewFileError(tmp, "write", err)
	}
	if err := fs.Rename(tmp, csvPath); err != nil {
		_ = fs.Remove(tmp)
		return 0, errors.NewFileError(csvPath, "rename", err)
	}
	return len(records), nil
}

func toRow(rec types.ArtifactRecord) []string {
	return []string{
		rec.Project,
		rec.Repository,
		rec.Digest,
		rec.PushTime,
		rec.ManifestMediaType,
		strings.Join(rec.Tags, ListSeparator),
		strings.Join(rec.Platforms, ListSeparator),
		strconv.FormatInt(rec.Size, 10),
	}
}

// ReadNDJSON parses the record stream. Blank lines are ignored.
func ReadNDJSON(fs afero.Fs, path string) ([]types.ArtifactRecord, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.NewFileError(path, "open", err)
	}
	defer f.Close()

	var records []types.ArtifactRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec types.ArtifactRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, errors.NewFileError(path, "decode", fmt.Errorf("line %d: %w", line, err))
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewFileError(path, "read", err)
	}
	return records, nil
}

// ReadCSV parses a report written by RebuildCSV. The header must start with the fixed
// columns; rows with a different column count are rejected by the CSV reader.
func ReadCSV(fs afero.Fs, path string) ([]Row, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.NewFileError(path, "open", err)
	}
	defer f.Close()
	return parseCSV(f, path)
}

func parseCSV(r io.Reader, path string) ([]Row, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewValidationError("csv", path+" is empty")
	}
	if err != nil {
		return nil, errors.NewFileError(path, "parse", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}
	hasSize := len(header) > requiredColumns

	var rows []Row
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewFileError(path, "parse", err)
		}
		line, _ := cr.FieldPos(0)

		rec := types.ArtifactRecord{
			Project:           fields[0],
			Repository:        fields[1],
			Digest:            fields[2],
			PushTime:          fields[3],
			ManifestMediaType: fields[4],
			Tags:              splitList(fields[5]),
			Platforms:         splitList(fields[6]),
		}
		if hasSize && fields[7] != "" {
			size, err := strconv.ParseInt(fields[7], 10, 64)
			if err != nil {
				return nil, errors.NewValidationError("size", fmt.Sprintf("line %d: %v", line, err))
			}
			rec.Size = size
		}
		rows = append(rows, Row{Line: line, Record: rec})
	}
	return rows, nil
}

func checkHeader(header []string) error {
	if len(header) < requiredColumns || len(header) > len(Header) {
		return errors.NewValidationError("csv", fmt.Sprintf("unexpected header %v", header))
	}
	for i, col := range header {
		if strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) != Header[i] {
			return errors.NewValidationError("csv",
				fmt.Sprintf("column %d is %q, want %q", i+1, col, Header[i]))
		}
	}
	return nil
}

// splitList is the inverse of strings.Join with ListSeparator; "" yields no elements.
func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ListSeparator)
}
