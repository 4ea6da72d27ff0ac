package types

import "time"

// Measurement is the series every soil sample is written under.
const Measurement = "soil_data"

const (
	FieldNitrogen   = "nitrogen"
	FieldPhosphorus = "phosphorus"
	FieldPotassium  = "potassium"
	FieldPH         = "ph"
)

// Fields lists the reading fields in payload order.
var Fields = []string{FieldNitrogen, FieldPhosphorus, FieldPotassium, FieldPH}

// IsField reports whether name is one of the four reading fields.
func IsField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Sample is one validated soil reading. A zero Time means "stamp at write".
type Sample struct {
	Nitrogen   float64   `json:"nitrogen"`
	Phosphorus float64   `json:"phosphorus"`
	Potassium  float64   `json:"potassium"`
	PH         float64   `json:"ph"`
	Time       time.Time `json:"timestamp,omitzero"`
}

// Values returns the sample's fields keyed by field name.
func (s Sample) Values() map[string]float64 {
	return map[string]float64{
		FieldNitrogen:   s.Nitrogen,
		FieldPhosphorus: s.Phosphorus,
		FieldPotassium:  s.Potassium,
		FieldPH:         s.PH,
	}
}

// RawRow is one (timestamp, field, value) tuple as the store delivers it.
type RawRow struct {
	Time        string  `json:"_time"`
	Field       string  `json:"_field"`
	Value       float64 `json:"_value"`
	Measurement string  `json:"_measurement"`
}

// MergedRecord is the wide, one-row-per-timestamp view of RawRows.
type MergedRecord struct {
	No         int      `json:"no"`
	Timestamp  string   `json:"timestamp"`
	Nitrogen   *float64 `json:"nitrogen"`
	PH         *float64 `json:"ph"`
	Potassium  *float64 `json:"potassium"`
	Phosphorus *float64 `json:"phosphorus"`
}
