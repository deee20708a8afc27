// Package session owns the state of one operator session: the current fiche,
// the values typed against it and the generation counter that decides which
// scan wins when several are decoded at once.
package session

import (
	"fmt"
	"sync"

	"qrprompt/internal/bundle"
	"qrprompt/internal/fiche"
	"qrprompt/internal/logging"

	"github.com/google/uuid"
)

// EventType identifies a session change.
type EventType string

const (
	EventScanned      EventType = "scanned"
	EventValueChanged EventType = "value_changed"
	EventReset        EventType = "reset"
)

// Event is delivered to subscribers after every state change, with the
// prompt as compiled right after the change. Seq grows with every change;
// delivery happens outside the controller lock, so concurrent changes may
// reach a subscriber out of order and consumers keep the highest Seq.
type Event struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	FieldID   string    `json:"field_id,omitempty"`
	Meta      string    `json:"meta"`
	Prompt    string    `json:"prompt"`
}

// Config holds the controller's policy knobs.
type Config struct {
	MinScore int
	Catalog  *fiche.Catalog
	Compile  fiche.CompileOptions
}

// DefaultConfig returns the built-in catalog and the default threshold.
func DefaultConfig() Config {
	return Config{
		MinScore: fiche.DefaultMinScore,
		Catalog:  fiche.NewCatalog(nil, ""),
	}
}

// Pending is a decoded scan waiting to be committed.
type Pending struct {
	gen   uint64
	fiche *fiche.Fiche
}

// Fiche is the decoded card.
func (p *Pending) Fiche() *fiche.Fiche { return p.fiche }

// Activation is everything a caller needs to open a target.
type Activation struct {
	Target    fiche.Target `json:"target"`
	URL       string       `json:"url"`
	ClientURI string       `json:"client_uri,omitempty"`
	Prompt    string       `json:"prompt"`
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	SessionID string                  `json:"session_id"`
	Meta      string                  `json:"meta"`
	Info      string                  `json:"info,omitempty"`
	Fields    []fiche.FieldDescriptor `json:"fields"`
	Values    map[string]string       `json:"values"`
	Targets   []fiche.Target          `json:"targets"`
	Prompt    string                  `json:"prompt"`
}

// Controller serializes every state change of a session.
type Controller struct {
	mu        sync.Mutex
	cfg       Config
	current   *fiche.Fiche
	store     *fiche.ValueStore
	sessionID string
	nextGen   uint64
	committed uint64
	seq       uint64

	subMu       sync.RWMutex
	subscribers map[int]func(Event)
	nextSub     int
}

// NewController creates an empty session.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:         normalizeConfig(cfg),
		store:       fiche.NewValueStore(),
		subscribers: make(map[int]func(Event)),
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.Catalog == nil {
		cfg.Catalog = fiche.NewCatalog(nil, "")
	}
	if cfg.MinScore < fiche.DefaultMinScore {
		cfg.MinScore = fiche.DefaultMinScore
	}
	return cfg
}

// UpdateConfig replaces the policy. The fiche and values are kept; targets
// and the compiled prompt follow the new policy from the next call on.
func (c *Controller) UpdateConfig(cfg Config) {
	c.mu.Lock()
	c.cfg = normalizeConfig(cfg)
	sessionID := c.sessionID
	c.mu.Unlock()

	logging.Get(logging.CategorySession).Infow("policy updated",
		"session", sessionID,
		"min_score", cfg.MinScore,
		"include_entries", cfg.Compile.IncludeEntries,
	)
}

// Subscribe registers fn for every future event and returns a function that
// removes it. fn runs on the goroutine that made the change, outside the
// controller lock, and must not block.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) notify(ev Event) {
	c.subMu.RLock()
	fns := make([]func(Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Prepare decodes raw without touching the session and stamps it with the
// next generation. Decode errors leave everything as it was.
func (c *Controller) Prepare(raw string) (*Pending, error) {
	c.mu.Lock()
	c.nextGen++
	gen := c.nextGen
	c.mu.Unlock()

	f, err := fiche.Normalize(raw)
	if err != nil {
		logging.Get(logging.CategorySession).Debugw("scan rejected", "generation", gen, "error", err)
		return nil, err
	}
	return &Pending{gen: gen, fiche: f}, nil
}

// Commit installs p as the current fiche and clears every value. It reports
// false, changing nothing, when a newer scan or a reset already committed.
func (c *Controller) Commit(p *Pending) bool {
	if p == nil {
		return false
	}

	c.mu.Lock()
	if p.gen <= c.committed {
		c.mu.Unlock()
		logging.Get(logging.CategorySession).Debugw("stale scan discarded", "generation", p.gen, "committed", c.committed)
		return false
	}
	c.committed = p.gen
	c.current = p.fiche
	c.store.Clear()
	c.sessionID = uuid.NewString()
	ev := c.eventLocked(EventScanned, "")
	c.mu.Unlock()

	logging.Get(logging.CategorySession).Infow("fiche loaded",
		"session", ev.SessionID,
		"title", p.fiche.Title,
		"fields", len(p.fiche.Fields),
	)
	c.notify(ev)
	return true
}

// Scan is Prepare followed by Commit.
func (c *Controller) Scan(raw string) error {
	p, err := c.Prepare(raw)
	if err != nil {
		return err
	}
	if !c.Commit(p) {
		return ErrStaleScan
	}
	return nil
}

// Reset drops the fiche and every value. Scans still being decoded are
// invalidated.
func (c *Controller) Reset() {
	c.mu.Lock()
	prev := c.sessionID
	c.current = nil
	c.store.Clear()
	c.sessionID = ""
	c.committed = c.nextGen
	ev := c.eventLocked(EventReset, "")
	c.mu.Unlock()

	logging.Get(logging.CategorySession).Infow("session reset", "session", prev)
	c.notify(ev)
}

// SetValue stores a raw value for a field.
func (c *Controller) SetValue(id, value string) error {
	c.mu.Lock()
	fd, err := c.fieldLocked(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if !fd.Kind.HoldsText() {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s is a %s field", ErrWrongKind, fd.ID, fd.Kind)
	}
	c.store.Set(fd.ID, value)
	ev := c.eventLocked(EventValueChanged, fd.ID)
	c.mu.Unlock()

	c.notify(ev)
	return nil
}

// SetFieldInputs stores the value collected from a control's raw inputs,
// following the field kind.
func (c *Controller) SetFieldInputs(id string, inputs []string) error {
	c.mu.Lock()
	fd, err := c.fieldLocked(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if fd.Kind == fiche.KindGPS || fd.Kind == fiche.KindPhoto {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s is a %s field", ErrWrongKind, fd.ID, fd.Kind)
	}
	c.store.Set(fd.ID, fd.Kind.Collect(inputs))
	ev := c.eventLocked(EventValueChanged, fd.ID)
	c.mu.Unlock()

	c.notify(ev)
	return nil
}

// SetGPS writes the formatted fix into every gps field and returns it.
func (c *Controller) SetGPS(fix fiche.GPSFix) (string, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return "", ErrNoFiche
	}
	var ids []string
	for _, fd := range c.current.Fields {
		if fd.Kind == fiche.KindGPS {
			ids = append(ids, fd.ID)
		}
	}
	formatted := c.store.SetGPS(fix, ids...)
	ev := c.eventLocked(EventValueChanged, "")
	c.mu.Unlock()

	logging.Get(logging.CategorySession).Debugw("gps fix applied", "fields", len(ids), "value", formatted)
	c.notify(ev)
	return formatted, nil
}

// AttachPhoto stores a photo for a photo field.
func (c *Controller) AttachPhoto(p fiche.Photo) error {
	c.mu.Lock()
	fd, err := c.fieldLocked(p.FieldID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if fd.Kind != fiche.KindPhoto {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s is a %s field", ErrWrongKind, fd.ID, fd.Kind)
	}
	p.FieldID = fd.ID
	c.store.AttachPhoto(p)
	ev := c.eventLocked(EventValueChanged, fd.ID)
	c.mu.Unlock()

	c.notify(ev)
	return nil
}

func (c *Controller) fieldLocked(id string) (fiche.FieldDescriptor, error) {
	if c.current == nil {
		return fiche.FieldDescriptor{}, ErrNoFiche
	}
	fd, ok := fiche.FindField(c.current.Fields, id)
	if !ok {
		return fiche.FieldDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	return fd, nil
}

func (c *Controller) eventLocked(t EventType, fieldID string) Event {
	c.seq++
	return Event{
		Seq:       c.seq,
		Type:      t,
		SessionID: c.sessionID,
		FieldID:   fieldID,
		Meta:      fiche.MetaLine(c.current),
		Prompt:    c.compileLocked(),
	}
}

func (c *Controller) compileLocked() string {
	return fiche.CompileWith(c.current, c.store.GetAll(), c.cfg.Compile)
}

func (c *Controller) targetsLocked() []fiche.Target {
	if c.current == nil {
		return nil
	}
	return fiche.Actionable(c.current.AIScores, c.cfg.MinScore)
}

// Fiche returns a copy of the current fiche, nil when none is loaded.
func (c *Controller) Fiche() *fiche.Fiche {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// Fields returns the field descriptors of the current fiche, nil when none
// is loaded.
func (c *Controller) Fields() []fiche.FieldDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	out := make([]fiche.FieldDescriptor, len(c.current.Fields))
	copy(out, c.current.Fields)
	return out
}

// Values returns a copy of the current values.
func (c *Controller) Values() map[string]string {
	return c.store.GetAll()
}

// Photos returns the attached photos.
func (c *Controller) Photos() []fiche.Photo {
	return c.store.Photos()
}

// Meta returns the display meta line.
func (c *Controller) Meta() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fiche.MetaLine(c.current)
}

// SessionID is the id of the current scan, "" when none is loaded.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Compile returns the prompt for the current state.
func (c *Controller) Compile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compileLocked()
}

// Targets returns the actionable targets of the current fiche.
func (c *Controller) Targets() []fiche.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetsLocked()
}

// Snapshot returns the whole state at once.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		SessionID: c.sessionID,
		Meta:      fiche.MetaLine(c.current),
		Info:      fiche.InfoText(c.current),
		Values:    c.store.GetAll(),
		Targets:   c.targetsLocked(),
		Prompt:    c.compileLocked(),
	}
	if c.current != nil {
		s.Fields = append([]fiche.FieldDescriptor(nil), c.current.Fields...)
	}
	return s
}

// BundleContents captures everything an export needs under one lock, so the
// archive never mixes two scans. ErrNoFiche when none is loaded.
func (c *Controller) BundleContents() (bundle.Contents, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return bundle.Contents{}, ErrNoFiche
	}
	return bundle.Contents{
		SessionID: c.sessionID,
		Fiche:     c.current.Clone(),
		Prompt:    c.compileLocked(),
		Values:    c.store.GetAll(),
		Photos:    c.store.Photos(),
	}, nil
}

// Activate compiles the prompt and materializes the URLs of the named
// target. Opening them is left to the caller.
func (c *Controller) Activate(name string) (Activation, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return Activation{}, ErrNoFiche
	}
	target, ok := fiche.FindTarget(c.targetsLocked(), name)
	if !ok {
		c.mu.Unlock()
		return Activation{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	prompt := c.compileLocked()
	sessionID := c.sessionID
	catalog := c.cfg.Catalog
	c.mu.Unlock()

	act := Activation{
		Target:    target,
		URL:       catalog.Materialize(target.ScoreEntry, prompt),
		ClientURI: catalog.MaterializeClient(target.ScoreEntry, prompt),
		Prompt:    prompt,
	}
	logging.Get(logging.CategoryTargets).Infow("target activated",
		"session", sessionID,
		"target", target.Name,
		"tier", target.Tier,
	)
	return act, nil
}
