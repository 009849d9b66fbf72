package agents

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// GetString returns a string value from a context map.
func GetString(m map[string]interface{}, key string) (string, bool) {
	val, exists := m[key]
	if !exists {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt returns an int value from a context map. JSON numbers arrive as
// float64 and CSV-derived values may be int64 or numeric strings.
func GetInt(m map[string]interface{}, key string) (int, bool) {
	f, ok := GetFloat(m, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// GetFloat returns a float value from a context map.
func GetFloat(m map[string]interface{}, key string) (float64, bool) {
	val, exists := m[key]
	if !exists {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// GetBool returns a bool value from a context map.
func GetBool(m map[string]interface{}, key string) (bool, bool) {
	val, exists := m[key]
	if !exists {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// GetMap returns a nested map value from a context map. Step results are
// Result values, which are maps under a named type.
func GetMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	val, exists := m[key]
	if !exists {
		return nil, false
	}
	switch v := val.(type) {
	case map[string]interface{}:
		return v, true
	case Result:
		return v, true
	default:
		return nil, false
	}
}

// DependencyString searches injected step results (step_N_result keys,
// lowest N first) for a non-empty string under key. Lets an agent consume
// a named output of an upstream step it depends on.
func DependencyString(actx map[string]interface{}, key string) (string, bool) {
	var ns []int
	for k := range actx {
		if !strings.HasPrefix(k, "step_") || !strings.HasSuffix(k, "_result") {
			continue
		}
		mid := k[len("step_") : len(k)-len("_result")]
		if n, err := strconv.Atoi(mid); err == nil {
			ns = append(ns, n)
		}
	}
	sort.Ints(ns)

	for _, n := range ns {
		res, ok := GetMap(actx, "step_"+strconv.Itoa(n)+"_result")
		if !ok {
			continue
		}
		if s, ok := GetString(res, key); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// contextJSON renders a context map for inclusion in a model prompt.
func contextJSON(m map[string]interface{}) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
