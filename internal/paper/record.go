package paper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// Summary is the minimal view every provider record supports.
type Summary struct {
	Title          string
	AuthorNames    []string
	ReferenceCount int
	CitationCount  int
}

// Contribution is a provider record normalized into canonical fields. The
// merge engine decides which of these values end up in the Paper.
type Contribution struct {
	IDs IDs

	Title         string
	Alias         string
	Year          string
	Venue         string
	Abstract      string
	TLDR          string
	PDFURL        string
	HTMLURL       string
	NumCitations  int
	NumReferences int

	Authors      []Author
	Affiliations []string
	Tags         []string
	URLs         []URL
}

// Record is one provider's normalized response for a single paper.
type Record interface {
	Summary() Summary
	// Contribution reports the canonical fields this record supplies. A record
	// that carries nothing usable (for example a citation-graph stub without a
	// paper id) returns ok=false.
	Contribution() (c Contribution, ok bool)
}

// Entry is the value stored in Paper.Sources: either a record or the error
// message the provider failed with.
type Entry struct {
	Record Record
	Err    string
}

// RecordEntry wraps a successful provider record.
func RecordEntry(r Record) Entry {
	return Entry{Record: r}
}

// ErrorEntry wraps a provider failure.
func ErrorEntry(err error) Entry {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Entry{Err: msg}
}

// Failed reports whether the entry is an error marker.
func (e Entry) Failed() bool {
	return e.Err != "" || e.Record == nil
}

// MarshalJSON writes the record itself, or {"error": msg} for failures.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Err != "" || e.Record == nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Err})
	}
	return json.Marshal(e.Record)
}

// RawRecord holds a source entry whose provider has no registered decoder.
type RawRecord struct {
	json.RawMessage
}

// Summary implements Record.
func (r RawRecord) Summary() Summary { return Summary{} }

// Contribution implements Record. Unknown records never contribute fields.
func (r RawRecord) Contribution() (Contribution, bool) { return Contribution{}, false }

// MarshalJSON re-emits the raw payload unchanged.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	if len(r.RawMessage) == 0 {
		return []byte("null"), nil
	}
	return r.RawMessage, nil
}

var (
	decodersMu sync.RWMutex
	decoders   = map[Key]func() Record{}
)

// RegisterRecord installs the constructor used to decode stored entries for
// key. Provider packages call it from init. The constructor must return a
// pointer that json.Unmarshal can fill.
func RegisterRecord(key Key, newRecord func() Record) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[key] = newRecord
}

func decodeEntry(key Key, data []byte) (Entry, error) {
	var marker struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &marker); err != nil {
		return Entry{}, fmt.Errorf("decoding source %s: %w", key, err)
	}
	if marker.Error != nil && *marker.Error != "" {
		return Entry{Err: *marker.Error}, nil
	}

	decodersMu.RLock()
	newRecord, ok := decoders[key]
	decodersMu.RUnlock()
	if !ok {
		return Entry{Record: RawRecord{RawMessage: bytes.Clone(data)}}, nil
	}

	rec := newRecord()
	if err := json.Unmarshal(data, rec); err != nil {
		return Entry{}, fmt.Errorf("decoding source %s: %w", key, err)
	}
	return Entry{Record: rec}, nil
}

// UnmarshalJSON decodes a Paper, restoring each source entry into the
// concrete record type registered for its key.
func (p *Paper) UnmarshalJSON(data []byte) error {
	type plain Paper
	var aux struct {
		plain
		Sources map[Key]json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	out := Paper(aux.plain)
	out.Sources = make(map[Key]Entry, len(aux.Sources))
	for key, raw := range aux.Sources {
		entry, err := decodeEntry(key, raw)
		if err != nil {
			return err
		}
		out.Sources[key] = entry
	}
	if out.DateFetched == nil {
		out.DateFetched = map[Key]int64{}
	}
	if out.Authors == nil {
		out.Authors = []Author{}
	}
	if out.Affiliations == nil {
		out.Affiliations = []string{}
	}
	if out.AutoTags == nil {
		out.AutoTags = []string{}
	}
	if out.URLs == nil {
		out.URLs = []URL{}
	}
	*p = out
	return nil
}
