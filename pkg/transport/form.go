package transport

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// EncodeForm urlencodes fields in the given order. url.Values sorts keys,
// which would break the relation between wire order and signed order.
func EncodeForm(fields []types.Field) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f.Value))
	}
	return sb.String()
}

// ParseForm decodes an urlencoded body, keeping field order. Repeated names
// are rejected because the signed order would be ambiguous.
func ParseForm(body string) ([]types.Field, error) {
	var fields []types.Field
	seen := make(map[string]struct{})
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("invalid form field name %q: %w", rawName, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid value for form field %q: %w", name, err)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("form field %q appears more than once", name)
		}
		seen[name] = struct{}{}
		fields = append(fields, types.Field{Name: name, Value: value})
	}
	return fields, nil
}
