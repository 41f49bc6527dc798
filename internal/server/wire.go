package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// looseBool accepts JSON booleans and their common string spellings
// ("1", "true", "yes", "y"), since scripted callers send both.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = looseBool(t)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "y":
			*b = true
		default:
			*b = false
		}
	case nil:
		*b = false
	case float64:
		*b = t != 0
	default:
		return fmt.Errorf("cannot interpret %T as boolean", v)
	}
	return nil
}

// pageList accepts a JSON array of integers or a comma-separated string
// ("0,2,5"). Unparseable input yields nil, matching a permissive caller
// contract where bad page hints mean "all pages".
type pageList []int

func (p *pageList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case []any:
		pages := make([]int, 0, len(t))
		for _, e := range t {
			n, ok := e.(float64)
			if !ok || n != float64(int(n)) {
				*p = nil
				return nil
			}
			pages = append(pages, int(n))
		}
		*p = pages
	case string:
		var pages []int
		for _, part := range strings.Split(t, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				*p = nil
				return nil
			}
			pages = append(pages, n)
		}
		*p = pages
	default:
		*p = nil
	}
	return nil
}
