package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// Payload formats a source may be configured with.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// Wrapper keys under which providers nest their record lists.
var wrapperKeys = []string{"data", "records", "rows", "result", "results", "vehicles", "list"}

// DecodeRecords decodes a payload body into raw records. An undecodable body
// counts as a fetch failure, which makes the orchestrator advance to the next
// candidate endpoint.
func DecodeRecords(body []byte, format string) ([]map[string]any, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return decodeJSON(body)
	case FormatXML:
		return decodeXML(body)
	}
	return nil, fmt.Errorf("unknown payload format %q", format)
}

func decodeJSON(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	switch t := v.(type) {
	case []any:
		return recordsFromList(t), nil
	case map[string]any:
		for _, k := range wrapperKeys {
			if lst, ok := t[k].([]any); ok {
				return recordsFromList(lst), nil
			}
		}
		// A bare object is a single record.
		return []map[string]any{t}, nil
	}
	return nil, errors.New("JSON payload is neither an object nor an array")
}

func decodeXML(body []byte) ([]map[string]any, error) {
	mv, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("invalid XML payload: %w", err)
	}
	if records := xmlRecordList(map[string]any(mv)); records != nil {
		return records, nil
	}
	// No repeated element found; treat the innermost single element as one
	// record.
	if record := xmlSingleRecord(map[string]any(mv)); record != nil {
		return []map[string]any{record}, nil
	}
	return nil, errors.New("XML payload carries no records")
}

// xmlRecordList finds the first repeated element whose entries are objects,
// searching depth-first through the document.
func xmlRecordList(m map[string]any) []map[string]any {
	for _, v := range m {
		if lst, ok := v.([]any); ok {
			if records := recordsFromList(lst); len(records) > 0 {
				return records
			}
		}
	}
	for _, v := range m {
		if child, ok := v.(map[string]any); ok {
			if records := xmlRecordList(child); records != nil {
				return records
			}
		}
	}
	return nil
}

// xmlSingleRecord descends through single-child wrapper elements until it
// reaches an element with more than one field, which it treats as the record.
func xmlSingleRecord(m map[string]any) map[string]any {
	if len(m) != 1 {
		return m
	}
	for _, v := range m {
		if child, ok := v.(map[string]any); ok {
			return xmlSingleRecord(child)
		}
	}
	return m
}

func recordsFromList(lst []any) []map[string]any {
	out := make([]map[string]any, 0, len(lst))
	for _, item := range lst {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}
