package sqlite

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// unicodeLowerFunc приводит текст к нижнему регистру с учетом Unicode,
// встроенный LOWER меняет только ASCII
const unicodeLowerFunc = "ulower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(unicodeLowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
