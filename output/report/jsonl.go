package report

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

type coverageLine struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

type linkLine struct {
	Reference   string  `json:"reference"`
	ResolvedURL *string `json:"resolvedURL"`
}

// WriteJSONL writes one JSON object per line: coverage violations first,
// then every external link. An unresolved link has a null resolvedURL.
func WriteJSONL(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for _, v := range r.Coverage.Violations {
		if err := enc.Encode(coverageLine{Symbol: v.Symbol, Reason: string(v.Reason)}); err != nil {
			return errors.Wrap(err, "encode coverage entry")
		}
	}
	for _, l := range r.Links.Links {
		if err := enc.Encode(linkLine{Reference: l.Reference, ResolvedURL: l.URL}); err != nil {
			return errors.Wrap(err, "encode link entry")
		}
	}
	return bw.Flush()
}

// WriteJSONLFile writes the JSONL report to path, replacing it atomically.
func WriteJSONLFile(path string, r *Report) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docs-check-report-*")
	if err != nil {
		return errors.Wrapf(err, "create report file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSONL(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close report file")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "chmod report file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "write report file %s", path)
	}
	return nil
}
