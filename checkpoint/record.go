package checkpoint

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp round-trips a time value through the schema's RFC 3339 TEXT
// columns.
type Timestamp struct{ time.Time }

func (t Timestamp) Value() (driver.Value, error) {
	return t.UTC().Format(time.RFC3339), nil
}

func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("checkpoint: parse timestamp %q: %w", v, err)
		}
		t.Time = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		t.Time = v
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("checkpoint: cannot scan %T into Timestamp", src)
	}
}

// Record is one row of the `checkpoints` table. State and Config are
// opaque JSON blobs: callers treat unknown fields as transparent, which
// lets algorithm-specific sub-pass state evolve without schema churn.
type Record struct {
	ID          string `db:"id"`
	DevicePath  string `db:"device_path"`
	Algorithm   string `db:"algorithm"`
	OperationID string `db:"operation_id"`

	CurrentPass  int   `db:"current_pass"`
	TotalPasses  int   `db:"total_passes"`
	BytesWritten int64 `db:"bytes_written"`
	TotalSize    int64 `db:"total_size"`

	// SectorsCompleted is a JSON array of u64 sector numbers,
	// used by the BadSectorHandler's skip-and-continue accounting.
	SectorsCompleted string `db:"sectors_completed"`

	// State is opaque algorithm-specific sub-pass progress, JSON-encoded
	//.
	State string `db:"state"`

	// Config is a JSON snapshot of the original WipeConfig.
	Config string `db:"config"`

	CreatedAt Timestamp `db:"created_at"`
	UpdatedAt Timestamp `db:"updated_at"`

	ErrorCount int     `db:"error_count"`
	LastError  *string `db:"last_error"`
}

// StateValue decodes State into an arbitrary nested map of
// string→value.
func (r *Record) StateValue() (map[string]any, error) {
	return decodeJSONMap(r.State)
}

// SetStateValue encodes v as State's opaque JSON blob.
func (r *Record) SetStateValue(v map[string]any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.State = string(b)
	return nil
}

func decodeJSONMap(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
