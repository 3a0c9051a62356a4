package intake

import (
	"encoding/json"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Payload serializes the normalized form. It never fails for a Form value.
func Payload(f Form) []byte {
	b, err := json.Marshal(Normalize(f))
	if err != nil {
		return []byte("{}")
	}
	return b
}

var answerType = reflect.TypeOf(Answer(""))

func answerHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to == answerType {
		return ParseAnswer(data), nil
	}
	return data, nil
}

// LoadForm decodes a stored payload, possibly written by an older schema.
// Missing keys and values of the wrong type fall back to defaults; it never fails.
func LoadForm(raw []byte) Form {
	var m map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return Form{}.withDefaults()
	}
	return decodeMap(m)
}

func decodeMap(m map[string]any) Form {
	var f Form
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       answerHook,
		Result:           &f,
	})
	if err == nil {
		// Fields that fail to decode keep their zero value.
		_ = dec.Decode(m)
	}
	return f.withDefaults()
}

// ApplyPatch merges a JSON merge patch into f. Objects merge recursively,
// null resets a key to its default and arrays are replaced wholesale.
func ApplyPatch(f Form, patch []byte) (Form, error) {
	var p map[string]any
	if err := json.Unmarshal(patch, &p); err != nil || p == nil {
		return f, ErrInvalidPatch
	}
	var base map[string]any
	b, _ := json.Marshal(f.withDefaults())
	if err := json.Unmarshal(b, &base); err != nil {
		return f, err
	}
	return decodeMap(mergePatch(base, p)), nil
}

func mergePatch(target, patch map[string]any) map[string]any {
	if target == nil {
		target = map[string]any{}
	}
	for k, v := range patch {
		switch pv := v.(type) {
		case nil:
			delete(target, k)
		case map[string]any:
			tv, _ := target[k].(map[string]any)
			target[k] = mergePatch(tv, pv)
		default:
			target[k] = v
		}
	}
	return target
}
