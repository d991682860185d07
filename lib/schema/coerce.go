package schema

import (
	"math"
	"strconv"
	"strings"

	"webshape/lib/textutil"
)

// Coerce converts an extracted string into the declared scalar type.
// Numeric coercion is lenient: surrounding junk is stripped before
// parsing and unparsable input yields NaN instead of an error.
func Coerce(t ValueType, raw string) any {
	switch t {
	case TypeNumber:
		f, err := strconv.ParseFloat(textutil.NumericString(raw), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case TypeBoolean:
		return strings.EqualFold(raw, "true") || raw == "1"
	}
	return raw
}
