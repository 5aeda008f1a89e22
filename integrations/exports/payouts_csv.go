package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"time"

	"farmchain/integrations/audit"
)

// PayoutsCSV builds a CSV export for the supplied audit records and returns the
// serialised data alongside a SHA-256 checksum of the payload.
func PayoutsCSV(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	header := []string{"sequence", "event", "pool", "account", "amount", "reward", "block_time", "recorded_at", "id"}
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatUint(r.Sequence, 10),
			r.Type,
			r.Pool,
			r.Account,
			amountOrZero(r.Amount),
			amountOrZero(r.Reward),
			strconv.FormatUint(r.BlockTime, 10),
			r.RecordedAt.UTC().Format(time.RFC3339Nano),
			r.ID.String(),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

func amountOrZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
