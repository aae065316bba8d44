package migrate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

var retryHeader = []string{"hash_id", "uuid", "predicate_uuid", "object_type", "object_uuid", "data_num", "data_date"}

// WriteRetryFile exports failed assertion candidates so a batch can be
// replayed from file instead of re-querying the legacy store.
func WriteRetryFile(path string, records []*types.LegacyAssertion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create retry file: %w", err)
	}
	defer f.Close()
	return writeRetry(f, records)
}

func writeRetry(w io.Writer, records []*types.LegacyAssertion) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(retryHeader); err != nil {
		return err
	}
	for _, record := range records {
		num := ""
		if record.DataNum != nil {
			num = strconv.FormatFloat(*record.DataNum, 'f', -1, 64)
		}
		date := ""
		if record.DataDate != nil {
			date = record.DataDate.UTC().Format(time.RFC3339)
		}
		row := []string{
			record.HashID,
			record.UUID,
			record.PredicateUUID,
			record.ObjectType,
			record.ObjectUUID,
			num,
			date,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRetryFile loads previously exported assertion candidates.
func ReadRetryFile(path string) ([]*types.LegacyAssertion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open retry file: %w", err)
	}
	defer f.Close()
	return readRetry(f)
}

func readRetry(r io.Reader) ([]*types.LegacyAssertion, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse retry file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows[0]) > 0 && rows[0][0] == retryHeader[0] {
		rows = rows[1:]
	}

	records := make([]*types.LegacyAssertion, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(retryHeader) {
			return nil, fmt.Errorf("retry file row %d: expected %d columns, got %d", i+1, len(retryHeader), len(row))
		}
		// The export format carries no visibility column; replayed rows stay
		// visible, like the default observation for rows without an obs_num.
		record := &types.LegacyAssertion{
			HashID:        row[0],
			UUID:          row[1],
			PredicateUUID: row[2],
			ObjectType:    row[3],
			ObjectUUID:    row[4],
			Visibility:    1,
		}
		if row[5] != "" {
			num, err := strconv.ParseFloat(row[5], 64)
			if err != nil {
				return nil, fmt.Errorf("retry file row %d: bad data_num %q: %w", i+1, row[5], err)
			}
			record.DataNum = &num
		}
		if row[6] != "" {
			date, err := time.Parse(time.RFC3339, row[6])
			if err != nil {
				return nil, fmt.Errorf("retry file row %d: bad data_date %q: %w", i+1, row[6], err)
			}
			record.DataDate = &date
		}
		records = append(records, record)
	}
	return records, nil
}
