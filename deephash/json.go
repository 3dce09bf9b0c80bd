package deephash

import (
	"bytes"
	"encoding/json"
	"fmt"

	"xdao.co/weave/b64url"
	"xdao.co/weave/errs"
)

// ParseJSON decodes a JSON item tree: a string is a base64url Blob and an
// array is a List. Any other JSON value is rejected.
//
//	["AQID", ["", "aGk"]]
func ParseJSON(data []byte) (Item, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errs.Wrap(errs.KindInput, errs.CodeItem, "invalid item JSON", err)
	}
	if dec.More() {
		return nil, errs.New(errs.KindInput, errs.CodeItem, "trailing data after item JSON")
	}
	return itemFrom(raw, "$")
}

func itemFrom(v any, at string) (Item, error) {
	switch x := v.(type) {
	case string:
		b, err := b64url.Decode(x)
		if err != nil {
			return nil, errs.Wrap(errs.KindInput, errs.CodeItem, fmt.Sprintf("%s: blob is not base64url", at), err)
		}
		return Blob(b), nil
	case []any:
		out := make(List, 0, len(x))
		for i, child := range x {
			it, err := itemFrom(child, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			out = append(out, it)
		}
		return out, nil
	default:
		return nil, errs.New(errs.KindInput, errs.CodeItem, fmt.Sprintf("%s: expected string or array, got %T", at, v))
	}
}

// MarshalJSON renders item in the form accepted by ParseJSON.
func MarshalJSON(item Item) ([]byte, error) {
	v, err := jsonValue(item, "$")
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func jsonValue(item Item, at string) (any, error) {
	switch v := resolve(item).(type) {
	case List:
		out := make([]any, len(v))
		for i, child := range v {
			cv, err := jsonValue(child, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case Blob:
		return b64url.Encode(v), nil
	default:
		return nil, errs.New(errs.KindInput, errs.CodeItem, fmt.Sprintf("%s: unsupported item type %T", at, item))
	}
}
