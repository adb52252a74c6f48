package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// Keys that describe the packet rather than observations.
const (
	keyDateTime = "dateTime"
	keyUnits    = "usUnits"
	keyType     = "type"
	keyInterval = "interval"
)

var errNoTimestamp = errors.New("packet has no dateTime")

// decodePacket parses a weewx-style JSON packet. Observation values may be
// numbers, numeric strings or null. Observations without a known unit group
// are returned in skipped.
func decodePacket(payload []byte) (p types.Packet, skipped []string, err error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return p, nil, fmt.Errorf("invalid packet JSON: %w", err)
	}

	ts, ok, err := number(raw[keyDateTime])
	if err != nil {
		return p, nil, fmt.Errorf("dateTime: %w", err)
	}
	if !ok {
		return p, nil, errNoTimestamp
	}
	sec, frac := math.Modf(ts)
	at := time.Unix(int64(sec), int64(frac*1e9))

	us, ok, err := number(raw[keyUnits])
	if err != nil || !ok {
		return p, nil, fmt.Errorf("usUnits missing or invalid: %v", raw[keyUnits])
	}
	system, err := units.ParseSystem(int(us))
	if err != nil {
		return p, nil, err
	}

	kind := types.Loop
	if t, ok := raw[keyType].(string); ok {
		switch strings.ToLower(t) {
		case "loop", "":
		case "archive":
			kind = types.Archive
		default:
			return p, nil, fmt.Errorf("unknown packet type %q", t)
		}
	}

	values := make(map[string]*float64, len(raw))
	for k, v := range raw {
		switch k {
		case keyDateTime, keyUnits, keyType, keyInterval:
			continue
		}
		f, ok, err := number(v)
		if err != nil {
			skipped = append(skipped, k)
			continue
		}
		if !ok {
			values[k] = nil
			continue
		}
		values[k] = &f
	}

	p, unknown := types.FromSystem(kind, at, system, values)
	return p, append(skipped, unknown...), nil
}

// number reads a JSON number, a numeric string or null. The boolean is
// false for null.
func number(v interface{}) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		f, err := n.Float64()
		return f, err == nil, err
	case string:
		s := strings.TrimSpace(n)
		if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil, err
	default:
		return 0, false, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}
