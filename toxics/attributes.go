package toxics

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Encode flattens a typed variant into its wire attribute map, using the
// variant's json tags as attribute keys.
func Encode(toxic Toxic) Attributes {
	data, err := json.Marshal(toxic)
	if err != nil {
		// Variants are flat structs of scalars; this cannot fail.
		panic("toxics: encoding " + toxic.Kind() + ": " + err.Error())
	}
	attrs := make(Attributes)
	if err := json.Unmarshal(data, &attrs); err != nil {
		panic("toxics: encoding " + toxic.Kind() + ": " + err.Error())
	}
	return attrs
}

// decodeAttributes copies values from a wire attribute map into the struct
// fields of a variant, matching on json tag. Coercion is deliberately
// lenient: a key that is absent or holds an incompatible value leaves the
// field alone instead of failing the whole decode.
func decodeAttributes(attrs Attributes, into Toxic) {
	value := reflect.ValueOf(into).Elem()
	structType := value.Type()

	for i := 0; i < structType.NumField(); i++ {
		tag := structType.Field(i).Tag.Get("json")
		if comma := strings.Index(tag, ","); comma >= 0 {
			tag = tag[:comma]
		}
		if tag == "" || tag == "-" {
			continue
		}
		raw, ok := attrs[tag]
		if !ok {
			continue
		}

		field := value.Field(i)
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n, ok := toFloat64(raw); ok {
				field.SetInt(int64(n))
			}
		case reflect.Float32, reflect.Float64:
			if n, ok := toFloat64(raw); ok {
				field.SetFloat(n)
			}
		case reflect.String:
			if s, ok := raw.(string); ok {
				field.SetString(s)
			}
		case reflect.Bool:
			if b, ok := raw.(bool); ok {
				field.SetBool(b)
			}
		}
	}
}

func toFloat64(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
