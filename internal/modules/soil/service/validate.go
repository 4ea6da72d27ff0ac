package service

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"soilmon/internal/modules/soil/types"
)

// ParseSample decodes one reading from an HTTP body or MQTT payload.
//
// Every field must be present and a finite number; numeric strings are
// accepted. A value of zero counts as missing, so a genuine 0 reading is
// rejected. An optional "timestamp" (RFC3339) pins the point time.
func ParseSample(payload []byte) (types.Sample, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return types.Sample{}, &types.ValidationError{Malformed: err}
	}

	var (
		verr   types.ValidationError
		values = make(map[string]float64, len(types.Fields))
	)
	for _, name := range types.Fields {
		v, st := coerce(raw[name])
		switch st {
		case fieldMissing:
			verr.Missing = append(verr.Missing, name)
		case fieldInvalid:
			verr.Invalid = append(verr.Invalid, name)
		default:
			values[name] = v
		}
	}

	var ts time.Time
	if rawTS, ok := raw["timestamp"]; ok && rawTS != nil {
		s, isString := rawTS.(string)
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
		if !isString || err != nil {
			verr.Invalid = append(verr.Invalid, "timestamp")
		} else {
			ts = parsed.UTC()
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return types.Sample{}, &verr
	}

	return types.Sample{
		Nitrogen:   values[types.FieldNitrogen],
		Phosphorus: values[types.FieldPhosphorus],
		Potassium:  values[types.FieldPotassium],
		PH:         values[types.FieldPH],
		Time:       ts,
	}, nil
}

type fieldState int

const (
	fieldOK fieldState = iota
	fieldMissing
	fieldInvalid
)

// coerce treats absent, null, false, "" and 0 as missing. Anything else must
// parse to a finite float.
func coerce(v any) (float64, fieldState) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case nil:
		return 0, fieldMissing
	case bool:
		if !t {
			return 0, fieldMissing
		}
		return 0, fieldInvalid
	case json.Number:
		f, err = strconv.ParseFloat(t.String(), 64)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fieldMissing
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, fieldInvalid
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fieldInvalid
	}
	if f == 0 {
		return 0, fieldMissing
	}
	return f, fieldOK
}
