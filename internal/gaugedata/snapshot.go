package gaugedata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the content of gauge-data.txt for one publish tick, keyed by
// field name. Values are formatted strings except WindRoseData, which is
// a list of numbers, and domwinddir, which is null without wind.
type Snapshot map[string]interface{}

// Encode renders the snapshot as compact JSON with sorted keys.
func (s Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]interface{}(s)); err != nil {
		return nil, fmt.Errorf("error encoding gauge data: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
