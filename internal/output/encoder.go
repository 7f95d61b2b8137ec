package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Format identifies a payload encoding.
type Format string

// Supported payload encodings
const (
	FormatJSON Format = "json"
	FormatTOON Format = "toon"
)

// Encoder serializes tool and CLI payloads. JSON (indented) is the
// default; TOON spends fewer tokens on the same data by dropping
// punctuation and folding uniform object arrays into tables.
type Encoder struct {
	format Format
}

// NewEncoder creates an encoder for the named format. Anything other
// than "toon" encodes as JSON.
func NewEncoder(format string) *Encoder {
	f := FormatJSON
	if strings.EqualFold(strings.TrimSpace(format), string(FormatTOON)) {
		f = FormatTOON
	}
	return &Encoder{format: f}
}

// Format returns the active format.
func (e *Encoder) Format() Format {
	return e.format
}

// Encode renders v in the configured format.
func (e *Encoder) Encode(v any) (string, error) {
	if e.format == FormatTOON {
		return EncodeTOON(v)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

// EncodeTOON renders v as TOON (token-oriented object notation):
// objects become indented key/value lines, arrays of uniform flat
// objects become tables with a shared field header, and keys are
// emitted in sorted order so output is deterministic.
//
// The value is round-tripped through encoding/json first so struct
// tags and omitempty behave exactly as they do on the JSON path.
func EncodeTOON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode toon: %w", err)
	}

	// UseNumber keeps numerals exactly as marshaled.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return "", fmt.Errorf("encode toon: %w", err)
	}

	var b strings.Builder
	writeValue(&b, 0, "", tree)
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func writeValue(b *strings.Builder, depth int, key string, v any) {
	switch t := v.(type) {
	case map[string]any:
		if key != "" {
			indent(b, depth)
			b.WriteString(encodeKey(key))
			b.WriteString(":\n")
			depth++
		}
		for _, k := range sortedKeys(t) {
			writeValue(b, depth, k, t[k])
		}
	case []any:
		writeArray(b, depth, key, t)
	default:
		indent(b, depth)
		if key != "" {
			b.WriteString(encodeKey(key))
			b.WriteString(": ")
		}
		b.WriteString(encodeScalar(v))
		b.WriteByte('\n')
	}
}

// writeArray picks the densest representation the elements allow: a
// table for uniform flat objects, one inline row for scalars, and a
// dash list for everything else.
func writeArray(b *strings.Builder, depth int, key string, items []any) {
	indent(b, depth)
	prefix := ""
	if key != "" {
		prefix = encodeKey(key)
	}

	if fields, ok := tableFields(items); ok {
		fmt.Fprintf(b, "%s[%d]{%s}:\n", prefix, len(items), joinFields(fields))
		for _, item := range items {
			row := item.(map[string]any)
			indent(b, depth+1)
			for i, f := range fields {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(encodeScalar(row[f]))
			}
			b.WriteByte('\n')
		}
		return
	}

	if scalarsOnly(items) {
		fmt.Fprintf(b, "%s[%d]:", prefix, len(items))
		for i, item := range items {
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(',')
			}
			b.WriteString(encodeScalar(item))
		}
		b.WriteByte('\n')
		return
	}

	fmt.Fprintf(b, "%s[%d]:\n", prefix, len(items))
	for _, item := range items {
		writeListItem(b, depth+1, item)
	}
}

// writeListItem emits one dash entry. Flat objects put their first
// field on the dash line; anything nested goes fully indented below a
// bare dash.
func writeListItem(b *strings.Builder, depth int, v any) {
	row, ok := v.(map[string]any)
	if !ok {
		if arr, isArr := v.([]any); isArr {
			indent(b, depth)
			b.WriteString("-\n")
			writeArray(b, depth+1, "", arr)
			return
		}
		indent(b, depth)
		b.WriteString("- ")
		b.WriteString(encodeScalar(v))
		b.WriteByte('\n')
		return
	}

	keys := sortedKeys(row)
	if len(keys) == 0 {
		indent(b, depth)
		b.WriteString("-\n")
		return
	}
	for i, k := range keys {
		if i == 0 {
			if isScalar(row[k]) {
				indent(b, depth)
				b.WriteString("- ")
				b.WriteString(encodeKey(k))
				b.WriteString(": ")
				b.WriteString(encodeScalar(row[k]))
				b.WriteByte('\n')
				continue
			}
			indent(b, depth)
			b.WriteString("-\n")
		}
		writeValue(b, depth+1, k, row[k])
	}
}

// tableFields returns the shared column set when every element is an
// object with the same keys and only scalar values.
func tableFields(items []any) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}

	var fields []string
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok || len(row) == 0 {
			return nil, false
		}
		keys := sortedKeys(row)
		for _, k := range keys {
			if !isScalar(row[k]) {
				return nil, false
			}
		}
		if i == 0 {
			fields = keys
		} else if !sameFields(fields, keys) {
			return nil, false
		}
	}
	return fields, true
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func scalarsOnly(items []any) bool {
	for _, item := range items {
		if !isScalar(item) {
			return false
		}
	}
	return true
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, json.Number:
		return true
	default:
		return false
	}
}

// encodeScalar renders a leaf value. Strings stay bare unless quoting
// is needed to keep the line parseable.
func encodeScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case string:
		if needsQuotes(t) {
			return quote(t)
		}
		return t
	default:
		// The JSON round-trip leaves only the cases above.
		return fmt.Sprintf("%v", v)
	}
}

// needsQuotes reports whether a bare rendering of s could be read back
// as something else: another scalar type, a delimiter, or trimmed
// whitespace.
func needsQuotes(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	switch s {
	case "true", "false", "null", "-":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if strings.HasPrefix(s, "- ") {
		return true
	}
	return strings.ContainsAny(s, ",\"\n\r\t")
}

var quoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

// bareKeyRegex matches keys that can go unquoted.
var bareKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func encodeKey(k string) string {
	if bareKeyRegex.MatchString(k) {
		return k
	}
	return quote(k)
}

func joinFields(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = encodeKey(f)
	}
	return strings.Join(quoted, ",")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}
