package rest

import (
	"net/url"
	"strings"
)

// decodeQuery decodes a raw query string into a parameter map. Unlike
// url.ParseQuery it fails on the first malformed escape instead of skipping
// the pair, and a repeated name keeps its last value.
func decodeQuery(raw string) (map[string]string, error) {
	params := map[string]string{}
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(name)
		if err != nil {
			return nil, &BadParameterError{Err: err}
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, &BadParameterError{Err: err}
		}
		params[name] = value
	}
	return params, nil
}

// parseBool accepts only the literal values true and false. An empty value
// counts as true, so ?pretty behaves like ?pretty=true.
func parseBool(name, value string) (bool, error) {
	switch value {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, illegalArgument("Failed to parse value [%s] as only [true] or [false] are allowed for parameter [%s]", value, name)
}
