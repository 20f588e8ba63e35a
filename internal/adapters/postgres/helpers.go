package postgres

import (
	"fmt"
	"strings"
)

// flatten turns [][]interface{} into one flat []interface{} so the rows can
// be passed as variadic query arguments.
func flatten(data [][]interface{}) []interface{} {
	if len(data) == 0 {
		return nil
	}

	flatSize := len(data) * len(data[0])
	flat := make([]interface{}, 0, flatSize)

	for _, row := range data {
		flat = append(flat, row...)
	}

	return flat
}

// buildValuesPlaceholders generates a VALUES placeholder string with
// explicit type casts. For 2 rows with types ["TEXT", "BIGINT"] it returns
// "($1::TEXT, $2::BIGINT), ($3::TEXT, $4::BIGINT)".
func buildValuesPlaceholders(types []string, rows int) string {
	if rows == 0 || len(types) == 0 {
		return ""
	}
	columns := len(types)

	rowPlaceholders := make([]string, rows)
	paramIndex := 1

	for i := 0; i < rows; i++ {
		colPlaceholders := make([]string, columns)
		for j := 0; j < columns; j++ {
			colPlaceholders[j] = fmt.Sprintf("$%d::%s", paramIndex, types[j])
			paramIndex++
		}
		rowPlaceholders[i] = fmt.Sprintf("(%s)", strings.Join(colPlaceholders, ", "))
	}

	return strings.Join(rowPlaceholders, ", ")
}
