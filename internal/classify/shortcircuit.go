package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ShortCircuit is a strategy that can decide a classification on its own.
// Evaluate reports false when the strategy has no opinion.
type ShortCircuit interface {
	Name() string
	Evaluate(d Descriptor) (Verdict, bool)
}

var folder = cases.Fold()

func fold(value string) string {
	return folder.String(value)
}

// Overrides forces a class for exact disc names.
type Overrides struct {
	exact  map[string]ContentClass
	folded map[string]ContentClass
}

// NewOverrides builds the override table from operator configuration.
// Entries with an unrecognized class are returned as invalid keys.
func NewOverrides(forced map[string]string) (*Overrides, []string) {
	o := &Overrides{
		exact:  make(map[string]ContentClass, len(forced)),
		folded: make(map[string]ContentClass, len(forced)),
	}
	var invalid []string
	for name, raw := range forced {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		class, ok := ParseContentClass(raw)
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		o.exact[name] = class
		o.folded[fold(name)] = class
	}
	sort.Strings(invalid)
	return o, invalid
}

func (o *Overrides) Name() string { return "manual_override" }

// Lookup returns the forced class for name. Exact matches win over
// case-insensitive ones.
func (o *Overrides) Lookup(name string) (ContentClass, bool) {
	if o == nil {
		return Unknown, false
	}
	name = strings.TrimSpace(name)
	if class, ok := o.exact[name]; ok {
		return class, true
	}
	class, ok := o.folded[fold(name)]
	return class, ok
}

func (o *Overrides) Evaluate(d Descriptor) (Verdict, bool) {
	class, ok := o.Lookup(d.RawName)
	if !ok {
		return Verdict{}, false
	}
	return Verdict{
		Class:      class,
		Confidence: High,
		Reason:     fmt.Sprintf("manual override forces %s", strings.ToLower(class.Label())),
		Signal:     o.Name(),
	}, true
}

// Len reports the number of configured overrides.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.exact)
}

// DefaultKnownSeries lists series whose episodes run feature length.
var DefaultKnownSeries = []string{
	"sherlock",
	"miss marple",
	"agatha christie's marple",
	"agatha christie's poirot",
	"hercule poirot",
	"midsomer murders",
	"inspector morse",
	"endeavour",
	"inspector lewis",
	"foyle's war",
	"a touch of frost",
	"the inspector lynley mysteries",
	"wallander",
	"luther",
	"columbo",
	"prime suspect",
	"cadfael",
	"inspector montalbano",
	"maigret",
}

// Registry is the known-series allow-list.
type Registry struct {
	entries []string
}

// NewRegistry folds and deduplicates the given series names.
func NewRegistry(names ...[]string) *Registry {
	seen := make(map[string]struct{})
	r := &Registry{}
	for _, group := range names {
		for _, name := range group {
			key := fold(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			r.entries = append(r.entries, key)
		}
	}
	return r
}

func (r *Registry) Name() string { return "known_series" }

// Entries returns the folded registry entries in insertion order.
func (r *Registry) Entries() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.entries...)
}

// Match returns the first entry contained in name. Underscores and dots
// count as spaces.
func (r *Registry) Match(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	haystack := fold(separatorReplacer.Replace(name))
	for _, entry := range r.entries {
		if strings.Contains(haystack, entry) {
			return entry, true
		}
	}
	return "", false
}

func (r *Registry) Evaluate(d Descriptor) (Verdict, bool) {
	entry, ok := r.Match(d.RawName)
	if !ok {
		return Verdict{}, false
	}
	return Verdict{
		Class:      TV,
		Confidence: High,
		Reason:     fmt.Sprintf("known series %q", entry),
		Signal:     r.Name(),
	}, true
}

var separatorReplacer = strings.NewReplacer("_", " ", ".", " ")

var multiDiscPattern = regexp.MustCompile(`(?i)(?:^|[\s_\-.])((?:disc|part|volume|vol)[\s_.]*\d+)$`)

// MultiDisc detects names ending in a disc, part or volume number.
type MultiDisc struct{}

func (MultiDisc) Name() string { return "multi_disc" }

func (m MultiDisc) Evaluate(d Descriptor) (Verdict, bool) {
	match := multiDiscPattern.FindStringSubmatch(strings.TrimSpace(d.RawName))
	if match == nil {
		return Verdict{}, false
	}
	return Verdict{
		Class:      TV,
		Confidence: High,
		Reason:     fmt.Sprintf("multi-disc set marker %q", match[1]),
		Signal:     m.Name(),
	}, true
}
