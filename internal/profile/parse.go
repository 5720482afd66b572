package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mkrenz/doseview/internal/units"
)

// Store is a parsed Nightscout profile-store document: several named
// profiles plus the name of the default one.
type Store struct {
	DefaultProfile string
	Units          units.Unit
	Profiles       map[string]*Profile
}

// Get returns the named profile, or the default profile for an empty name.
func (st *Store) Get(name string) (*Profile, error) {
	if name == "" {
		name = st.DefaultProfile
	}
	p, ok := st.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not in store", name)
	}
	return p, nil
}

// Names returns the stored profile names in sorted order.
func (st *Store) Names() []string {
	names := make([]string, 0, len(st.Profiles))
	for name := range st.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// number tolerates Nightscout's habit of emitting numbers as JSON strings.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing number %q: %w", s, err)
	}
	*n = number(f)
	return nil
}

type scheduleEntry struct {
	Time          string  `json:"time"`
	Value         number  `json:"value"`
	TimeAsSeconds *number `json:"timeAsSeconds,omitempty"`
}

type storeEntry struct {
	DIA        number          `json:"dia"`
	CarbRatio  []scheduleEntry `json:"carbratio"`
	Sens       []scheduleEntry `json:"sens"`
	Basal      []scheduleEntry `json:"basal"`
	TargetLow  []scheduleEntry `json:"target_low"`
	TargetHigh []scheduleEntry `json:"target_high"`
	Timezone   string          `json:"timezone"`
	Units      string          `json:"units"`
}

type storeDocument struct {
	DefaultProfile string                `json:"defaultProfile"`
	Units          string                `json:"units"`
	Store          map[string]storeEntry `json:"store"`
}

// ParseStore parses a Nightscout profile-store document. It accepts either
// a single document or the array form the /api/v1/profile endpoint returns
// (first element wins; Nightscout orders newest first).
func ParseStore(data []byte) (*Store, error) {
	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		var docs []storeDocument
		if arrErr := json.Unmarshal(data, &docs); arrErr != nil {
			return nil, fmt.Errorf("parsing profile store: %w", err)
		}
		if len(docs) == 0 {
			return nil, fmt.Errorf("profile store is empty")
		}
		doc = docs[0]
	}

	if len(doc.Store) == 0 {
		return nil, fmt.Errorf("profile store has no profiles")
	}

	docUnits := units.MgdL
	if doc.Units != "" {
		u, err := units.Parse(doc.Units)
		if err != nil {
			return nil, err
		}
		docUnits = u
	}

	st := &Store{
		DefaultProfile: doc.DefaultProfile,
		Units:          docUnits,
		Profiles:       make(map[string]*Profile, len(doc.Store)),
	}

	for name, entry := range doc.Store {
		p, err := fromStoreEntry(name, entry, docUnits)
		if err != nil {
			return nil, err
		}
		st.Profiles[name] = p
	}

	if st.DefaultProfile == "" {
		st.DefaultProfile = st.Names()[0]
	}
	return st, nil
}

// LoadFile reads a profile from a local JSON file. The file may hold a full
// profile-store document or a single bare store entry; for a bare entry the
// profile is named after the file.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	if st, err := ParseStore(data); err == nil {
		return st.Get("")
	}

	var entry storeEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing profile file %s: %w", path, err)
	}
	name := baseName(path)
	return fromStoreEntry(name, entry, units.MgdL)
}

func baseName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func fromStoreEntry(name string, entry storeEntry, docUnits units.Unit) (*Profile, error) {
	srcUnits := docUnits
	if entry.Units != "" {
		u, err := units.Parse(entry.Units)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		srcUnits = u
	}

	basal, err := toSchedule(entry.Basal)
	if err != nil {
		return nil, fmt.Errorf("profile %q: basal: %w", name, err)
	}
	carbRatio, err := toSchedule(entry.CarbRatio)
	if err != nil {
		return nil, fmt.Errorf("profile %q: carbratio: %w", name, err)
	}
	sens, err := toSchedule(entry.Sens)
	if err != nil {
		return nil, fmt.Errorf("profile %q: sens: %w", name, err)
	}
	targetLow, err := toSchedule(entry.TargetLow)
	if err != nil {
		return nil, fmt.Errorf("profile %q: target_low: %w", name, err)
	}
	targetHigh, err := toSchedule(entry.TargetHigh)
	if err != nil {
		return nil, fmt.Errorf("profile %q: target_high: %w", name, err)
	}

	// Canonicalize glucose-valued schedules to mg/dL.
	if sens, err = sens.convert(srcUnits); err != nil {
		return nil, fmt.Errorf("profile %q: sens: %w", name, err)
	}
	if targetLow, err = targetLow.convert(srcUnits); err != nil {
		return nil, fmt.Errorf("profile %q: target_low: %w", name, err)
	}
	if targetHigh, err = targetHigh.convert(srcUnits); err != nil {
		return nil, fmt.Errorf("profile %q: target_high: %w", name, err)
	}

	p := &Profile{
		Name:        name,
		Basal:       basal,
		CarbRatio:   carbRatio,
		Sensitivity: sens,
		TargetLow:   targetLow,
		TargetHigh:  targetHigh,
		Units:       srcUnits,
		Percentage:  100,
		Timezone:    entry.Timezone,
		DIA:         float64(entry.DIA),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func toSchedule(entries []scheduleEntry) (Schedule, error) {
	s := make(Schedule, 0, len(entries))
	for _, e := range entries {
		sec, err := e.seconds()
		if err != nil {
			return nil, err
		}
		s = append(s, Block{Seconds: sec, Value: float64(e.Value)})
	}
	return s.normalize()
}

// seconds resolves the entry's start offset, preferring timeAsSeconds and
// falling back to the "HH:MM" time field.
func (e scheduleEntry) seconds() (int, error) {
	if e.TimeAsSeconds != nil {
		return int(*e.TimeAsSeconds), nil
	}
	parts := strings.Split(e.Time, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad schedule time %q", e.Time)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad schedule time %q", e.Time)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad schedule time %q", e.Time)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("schedule time %q out of range", e.Time)
	}
	return h*3600 + m*60, nil
}
