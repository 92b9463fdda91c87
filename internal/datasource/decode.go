package datasource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yourusername/gltp-records/internal/models"
)

// DecodeRecords parses a records document. The document is either an object
// keyed by replay uuid, visited in key order, or an array of entries. Anything
// else is models.ErrInvalidInput. Entries that are not JSON objects, or whose
// fields have the wrong JSON types, are reported in Document.Rejected.
func DecodeRecords(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", models.ErrInvalidInput)
	}

	switch trimmed[0] {
	case '{':
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		doc := &Document{Records: make([]models.RawRecord, 0, len(keys))}
		for i, key := range keys {
			decodeEntry(doc, i, key, entries[key])
		}
		return doc, nil

	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}

		doc := &Document{Records: make([]models.RawRecord, 0, len(entries))}
		for i, entry := range entries {
			decodeEntry(doc, i, "", entry)
		}
		return doc, nil

	default:
		return nil, fmt.Errorf("%w: document must be an object or an array", models.ErrInvalidInput)
	}
}

func decodeEntry(doc *Document, index int, key string, entry json.RawMessage) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		doc.Rejected = append(doc.Rejected, RejectedEntry{
			Index: index,
			Key:   key,
			Err:   fmt.Errorf("entry is not an object: %.32s", trimmed),
		})
		return
	}

	var raw models.RawRecord
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		doc.Rejected = append(doc.Rejected, RejectedEntry{Index: index, Key: key, Err: err})
		return
	}
	if raw.UUID == "" {
		raw.UUID = key
	}
	raw.Position = index
	doc.Records = append(doc.Records, raw)
}
