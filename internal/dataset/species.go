package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadSpeciesNames reads the optional code,common_name lookup used to label
// species in the report. A header row is skipped when present; rows with
// fewer than two columns are ignored.
func ReadSpeciesNames(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open species csv %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	names := make(map[string]string)
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read species csv %s", path)
		}
		if len(record) < 2 {
			continue
		}
		code := strings.TrimSpace(record[0])
		if first {
			first = false
			if strings.EqualFold(code, "code") {
				continue
			}
		}
		if code == "" {
			continue
		}
		names[code] = strings.TrimSpace(record[1])
	}
	return names, nil
}
