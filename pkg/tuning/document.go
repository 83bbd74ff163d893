package tuning

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"mercator-hq/leakscan/pkg/detector"
)

// Document is a tuning document as exported by the offline trainer.
type Document struct {
	// Patterns maps a rule name to a regular expression source.
	Patterns map[string]string `json:"patterns,omitempty"`

	// SensitiveKeywords maps a category to its keyword list.
	SensitiveKeywords map[string][]string `json:"sensitiveKeywords,omitempty"`

	// MLFeatures carries the keyword weights learned by the classifier.
	MLFeatures *MLFeatures `json:"mlFeatures,omitempty"`

	// Version is the exporter's document format version.
	Version string `json:"version,omitempty"`

	// ExportedAt is the export timestamp as written by the exporter.
	ExportedAt string `json:"exportedAt,omitempty"`

	// Rejected lists entries dropped while decoding because their JSON
	// shape was wrong. The rest of the document still applies.
	Rejected []Rejection `json:"-"`
}

// Rejection is one document entry that could not be decoded.
type Rejection struct {
	// Section is the JSON path of the containing table, such as "patterns"
	// or "mlFeatures.topLeakKeywords".
	Section string
	// Key is the map key, or the array index for list entries.
	Key string
	// Raw is the entry as it appeared in the document.
	Raw string
	Err error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("%s[%s]: %v", r.Section, r.Key, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

const (
	sectionPatterns   = "patterns"
	sectionKeywords   = "sensitiveKeywords"
	sectionMLKeywords = "mlFeatures.topLeakKeywords"
)

// MLFeatures is the ML section of a tuning document.
type MLFeatures struct {
	// TopLeakKeywords lists [keyword, weight] pairs.
	TopLeakKeywords []detector.MLKeyword `json:"topLeakKeywords"`

	// ModelType names the classifier the weights came from. Informational.
	ModelType string `json:"modelType,omitempty"`
}

// Parse decodes a tuning document. Malformed entries inside the pattern,
// keyword and ML tables are recorded in Rejected instead of failing the
// whole document; only a malformed document structure is an error.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tuning document: %w", err)
	}
	return &doc, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Patterns          map[string]json.RawMessage `json:"patterns"`
		SensitiveKeywords map[string]json.RawMessage `json:"sensitiveKeywords"`
		MLFeatures        *struct {
			TopLeakKeywords []json.RawMessage `json:"topLeakKeywords"`
			ModelType       string            `json:"modelType"`
		} `json:"mlFeatures"`
		Version    string `json:"version"`
		ExportedAt string `json:"exportedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{Version: raw.Version, ExportedAt: raw.ExportedAt}

	if raw.Patterns != nil {
		d.Patterns = make(map[string]string, len(raw.Patterns))
		for name, entry := range raw.Patterns {
			var src string
			if err := json.Unmarshal(entry, &src); err != nil {
				d.reject(sectionPatterns, name, entry, fmt.Errorf("pattern must be a string: %w", err))
				continue
			}
			d.Patterns[name] = src
		}
	}

	if raw.SensitiveKeywords != nil {
		d.SensitiveKeywords = make(map[string][]string, len(raw.SensitiveKeywords))
		for category, entry := range raw.SensitiveKeywords {
			var words []string
			if err := json.Unmarshal(entry, &words); err != nil {
				d.reject(sectionKeywords, category, entry, fmt.Errorf("keywords must be a list of strings: %w", err))
				continue
			}
			d.SensitiveKeywords[category] = words
		}
	}

	if raw.MLFeatures != nil {
		d.MLFeatures = &MLFeatures{ModelType: raw.MLFeatures.ModelType}
		if raw.MLFeatures.TopLeakKeywords != nil {
			kws := make([]detector.MLKeyword, 0, len(raw.MLFeatures.TopLeakKeywords))
			for i, entry := range raw.MLFeatures.TopLeakKeywords {
				var kw detector.MLKeyword
				if err := json.Unmarshal(entry, &kw); err != nil {
					d.reject(sectionMLKeywords, strconv.Itoa(i), entry, err)
					continue
				}
				kws = append(kws, kw)
			}
			d.MLFeatures.TopLeakKeywords = kws
		}
	}

	// Map entries arrive in random order; list entries keep their index order.
	sort.SliceStable(d.Rejected, func(i, j int) bool {
		a, b := d.Rejected[i], d.Rejected[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		return a.Section != sectionMLKeywords && a.Key < b.Key
	})
	return nil
}

func (d *Document) reject(section, key string, raw json.RawMessage, err error) {
	d.Rejected = append(d.Rejected, Rejection{Section: section, Key: key, Raw: string(raw), Err: err})
}

// PatternRejections returns the pattern entries dropped while decoding, in
// the same form the detector uses for patterns that fail to compile.
func (d *Document) PatternRejections() []detector.PatternError {
	var out []detector.PatternError
	for _, r := range d.Rejected {
		if r.Section != sectionPatterns {
			continue
		}
		out = append(out, detector.PatternError{Tag: r.Key, Source: r.Raw, Err: r.Err})
	}
	return out
}

// Tuning converts the document into detector overrides.
func (d *Document) Tuning() detector.Tuning {
	t := detector.Tuning{
		Patterns:          d.Patterns,
		SensitiveKeywords: d.SensitiveKeywords,
	}
	if d.MLFeatures != nil && d.MLFeatures.TopLeakKeywords != nil {
		t.MLKeywords = d.MLFeatures.TopLeakKeywords
	}
	return t
}

// ModelType returns the ML model type, or "" when absent.
func (d *Document) ModelType() string {
	if d.MLFeatures == nil {
		return ""
	}
	return d.MLFeatures.ModelType
}

// Validate compiles every pattern in the document against a scratch
// detector and returns the entries that would be skipped, including those
// dropped while decoding.
func (d *Document) Validate() []detector.PatternError {
	report := detector.New().Apply(d.Tuning())
	return append(d.PatternRejections(), report.PatternErrors...)
}
