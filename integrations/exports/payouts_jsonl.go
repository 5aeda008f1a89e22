package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"farmchain/integrations/audit"
)

type payoutLine struct {
	Sequence   uint64 `json:"sequence"`
	Event      string `json:"event"`
	Pool       string `json:"pool"`
	Account    string `json:"account"`
	Amount     string `json:"amount"`
	Reward     string `json:"reward"`
	BlockTime  uint64 `json:"block_time"`
	RecordedAt string `json:"recorded_at"`
	ID         string `json:"id"`
}

// PayoutsJSONL builds a JSON Lines export for the supplied audit records and
// returns the serialised payload alongside a checksum.
func PayoutsJSONL(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, r := range records {
		line := payoutLine{
			Sequence:   r.Sequence,
			Event:      r.Type,
			Pool:       r.Pool,
			Account:    r.Account,
			Amount:     amountOrZero(r.Amount),
			Reward:     amountOrZero(r.Reward),
			BlockTime:  r.BlockTime,
			RecordedAt: r.RecordedAt.UTC().Format(time.RFC3339Nano),
			ID:         r.ID.String(),
		}
		if err := encoder.Encode(line); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
