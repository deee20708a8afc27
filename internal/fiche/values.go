package fiche

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// GPSFix is a resolved geolocation result.
type GPSFix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// String formats the fix the way it is stored and substituted:
// "lat, lon (±N m)" with the accuracy rounded to whole metres.
func (g GPSFix) String() string {
	return fmt.Sprintf("%s, %s (±%d m)",
		formatFloat(g.Latitude), formatFloat(g.Longitude), int64(math.Floor(g.Accuracy+0.5)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Photo is a captured file attached to a photo field. It is only surfaced
// through bundle export, never substituted into the prompt.
type Photo struct {
	FieldID     string `json:"field_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"-"`
}

// ValueStore holds the operator's current values keyed by canonical field id.
// It performs no validation; required flags are informational only.
type ValueStore struct {
	mu     sync.RWMutex
	values map[string]string
	gps    *GPSFix
	photos map[string]Photo
}

// NewValueStore creates an empty store.
func NewValueStore() *ValueStore {
	return &ValueStore{
		values: make(map[string]string),
		photos: make(map[string]Photo),
	}
}

// Set stores a value, replacing any previous one.
func (s *ValueStore) Set(id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = value
}

// Get returns the value for id.
func (s *ValueStore) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	return v, ok
}

// GetAll returns a copy of every text value.
func (s *ValueStore) GetAll() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SetGPS records a fix and writes its formatted form to every given field id.
func (s *ValueStore) SetGPS(fix GPSFix, fieldIDs ...string) string {
	formatted := fix.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	f := fix
	s.gps = &f
	for _, id := range fieldIDs {
		s.values[id] = formatted
	}
	return formatted
}

// GPS returns the last recorded fix.
func (s *ValueStore) GPS() (GPSFix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gps == nil {
		return GPSFix{}, false
	}
	return *s.gps, true
}

// AttachPhoto stores a photo in the side table, replacing any previous photo
// for the same field.
func (s *ValueStore) AttachPhoto(p Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[p.FieldID] = p
}

// Photos returns the attached photos sorted by field id.
func (s *ValueStore) Photos() []Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Photo, 0, len(s.photos))
	for _, p := range s.photos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldID < out[j].FieldID })
	return out
}

// Clear drops every value, the GPS fix and all photos.
func (s *ValueStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	s.photos = make(map[string]Photo)
	s.gps = nil
}

// Len is the number of text values.
func (s *ValueStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
