package export

import "soilmon/internal/modules/soil/types"

// MergeByTimestamp folds long (time, field, value) rows into one record per
// distinct timestamp string. Records keep the order in which their timestamp
// first appears and are numbered from 1. Rows for unknown fields still open a
// record but set nothing; a repeated (time, field) pair keeps the last value.
func MergeByTimestamp(rows []types.RawRow) []types.MergedRecord {
	out := make([]types.MergedRecord, 0)
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Time]
		if !ok {
			i = len(out)
			index[row.Time] = i
			out = append(out, types.MergedRecord{No: i + 1, Timestamp: row.Time})
		}

		v := row.Value
		rec := &out[i]
		switch row.Field {
		case types.FieldNitrogen:
			rec.Nitrogen = &v
		case types.FieldPhosphorus:
			rec.Phosphorus = &v
		case types.FieldPotassium:
			rec.Potassium = &v
		case types.FieldPH:
			rec.PH = &v
		}
	}
	return out
}
