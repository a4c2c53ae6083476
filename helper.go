// FILE: lixenwraith/dotenv/helper.go
package dotenv

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// keySeparator joins nested data source keys into flat env keys
const keySeparator = "_"

// joinKey appends a segment to a flat key prefix
func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + keySeparator + key
}

// flattenInto adds the entries of a nested map to out with '_' joined keys.
// Keys of each level are visited in sorted order.
func flattenInto(out *Map, prefix string, nested map[string]any) {
	keys := make([]string, 0, len(nested))
	for k := range nested {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		path := joinKey(prefix, k)
		if sub, isMap := nested[k].(map[string]any); isMap {
			flattenInto(out, path, sub)
			continue
		}
		out.Set(path, dataValue(nested[k]))
	}
}

// dataValue converts a decoded data source value into a Value
func dataValue(v any) Value {
	switch x := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return Int(i)
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			// Integer outside int64, kept verbatim
			return String(x.String())
		}
		if f, err := x.Float64(); err == nil {
			return Float(f)
		}
		return String(x.String())
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = dataValue(item)
		}
		return Array(items...)
	case []map[string]any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return String(fmt.Sprint(x))
		}
		return String(string(b))
	default:
		return ValueOf(v)
	}
}

// envString formats v for process environment registration:
// booleans as TRUE/FALSE, null as NULL, arrays comma-joined.
func envString(v Value) string {
	switch v.Kind() {
	case KindBool:
		if b, _ := v.AsBool(); b {
			return "TRUE"
		}
		return "FALSE"
	case KindNull:
		return "NULL"
	default:
		return v.String()
	}
}
