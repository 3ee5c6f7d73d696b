package gofilterer

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Pagination-control parameters. They drive sorting and paging and are never
// passed to param handlers.
const (
	ParamPage      = "page"
	ParamPerPage   = "per_page"
	ParamSort      = "sort"
	ParamDirection = "direction"
)

var _controlParams = []string{ParamPage, ParamPerPage, ParamSort, ParamDirection}

// Params holds untyped request parameters. Values are usually strings or
// string slices (see ParamsFromValues) but any value is accepted.
type Params map[string]any

// ParamsFromValues converts query string values into Params. Single values are
// unwrapped to a plain string, repeated values are kept as a []string.
func ParamsFromValues(values url.Values) Params {
	ret := make(Params, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
			ret[key] = ""
		case 1:
			ret[key] = vals[0]
		default:
			ret[key] = slices.Clone(vals)
		}
	}

	return ret
}

// Get returns the value stored under the canonical form of key.
func (p Params) Get(key string) any {
	return p[canonicalKey(key)]
}

// String returns the value under key as a string. For slices the first
// element is returned.
func (p Params) String(key string) string {
	return stringOf(p.Get(key))
}

// Int returns the value under key as an int, or 0 when it can't be parsed.
func (p Params) Int(key string) int {
	return intOf(p.Get(key))
}

// Present reports whether key holds a non-blank value.
func (p Params) Present(key string) bool {
	return !isBlank(p.Get(key))
}

// canonical returns a copy of p with canonical keys. Keys are visited in
// sorted order so collisions ("Name" and "name") resolve deterministically.
func (p Params) canonical() Params {
	keys := lo.Keys(p)
	slices.Sort(keys)

	ret := make(Params, len(p))
	for _, key := range keys {
		ret[canonicalKey(key)] = p[key]
	}

	return ret
}

// mergeParams layers params over defaults. Neither input is modified.
func mergeParams(defaults, params Params) Params {
	return lo.Assign(defaults.canonical(), params.canonical())
}

func canonicalKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func isControlParam(key string) bool {
	return slices.Contains(_controlParams, key)
}

func stringOf(v any) string {
	switch vt := v.(type) {
	case nil:
		return ""
	case string:
		return vt
	case []string:
		return lo.FirstOrEmpty(vt)
	case []any:
		return cast.ToString(lo.FirstOrEmpty(vt))
	default:
		return cast.ToString(v)
	}
}

func intOf(v any) int {
	switch vt := v.(type) {
	case string, []string, []any:
		s := strings.TrimSpace(stringOf(vt))

		// Decimal first: cast parses with base 0 and reads "010" as octal.
		n, err := strconv.ParseInt(s, 10, strconv.IntSize)
		switch {
		case err == nil:
			return int(n)
		case errors.Is(err, strconv.ErrRange):
			// Out-of-range numbers saturate so that clamping still applies.
			return lo.Ternary(strings.HasPrefix(s, "-"), math.MinInt, math.MaxInt)
		}

		return cast.ToInt(s)
	default:
		return cast.ToInt(v)
	}
}

// isBlank reports whether v carries no usable value: nil, false, whitespace
// strings, empty collections and nil pointers.
func isBlank(v any) bool {
	switch vt := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vt) == ""
	case []string:
		return lo.EveryBy(vt, func(s string) bool { return strings.TrimSpace(s) == "" })
	case bool:
		return !vt
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
