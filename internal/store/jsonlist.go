package store

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// appendJSONString appends a string element to a JSON array column value.
// A nil or empty column is treated as an empty array.
func appendJSONString(col datatypes.JSON, value string) (datatypes.JSON, error) {
	var items []string
	if len(col) > 0 {
		if err := json.Unmarshal(col, &items); err != nil {
			return nil, err
		}
	}
	items = append(items, value)
	out, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

// jsonStringList builds a JSON array column value from strings. Used by the
// sample-data seeder.
func jsonStringList(items ...string) datatypes.JSON {
	out, _ := json.Marshal(items)
	return datatypes.JSON(out)
}
