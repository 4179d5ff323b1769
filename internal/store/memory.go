package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/memdb"
)

// Accepted sends always report these values.
const (
	StatusOK      = "OK"
	ErrorCodeNone = 0
)

// submittedAtLayout matches JavaScript's Date.toISOString.
const submittedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// MemoryStore holds all Postmark twin state in memory. It is the single
// owner of the record tables and identifier counters; every mutation holds
// mu across identifier allocation and append so an identifier is never
// handed out twice and a failed operation leaves no trace. Readers hold mu
// shared, so they never observe a LoadState or Reset half applied.
type MemoryStore struct {
	mu         sync.RWMutex
	thingIDs   *sequence
	templateID *sequence
	messageID  func() string

	Things    *memdb.Table[Thing]
	Emails    *memdb.Table[Email]
	Templates *memdb.Table[Template]
	Clock     *memdb.Clock
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithMessageIDFunc overrides the MessageID generator.
func WithMessageIDFunc(fn func() string) Option {
	return func(s *MemoryStore) {
		if fn != nil {
			s.messageID = fn
		}
	}
}

// WithClock replaces the simulated clock.
func WithClock(c *memdb.Clock) Option {
	return func(s *MemoryStore) {
		if c != nil {
			s.Clock = c
		}
	}
}

// New creates a new MemoryStore with empty state.
func New(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		thingIDs:   newSequence(firstThingID),
		templateID: newSequence(firstTemplateID),
		messageID:  newMessageID,
		Things:     memdb.NewTable(func(t Thing) string { return t.ID }),
		Emails:     memdb.NewTable(func(e Email) string { return e.MessageID }),
		Templates:  memdb.NewTable(templateKey),
		Clock:      memdb.NewClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func templateKey(t Template) string {
	return strconv.FormatInt(t.TemplateID, 10)
}

// AddThing stores a new Thing under the next generic identifier.
func (s *MemoryStore) AddThing(in ThingInput) (Thing, error) {
	if err := ValidateThingInput(in); err != nil {
		return Thing{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	th := Thing{
		ID:          strconv.FormatInt(s.thingIDs.peek(), 10),
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.Things.Insert(th); err != nil {
		return Thing{}, err
	}
	s.thingIDs.take()
	return th, nil
}

// AddEmail records a direct send.
func (s *MemoryStore) AddEmail(in EmailInput) (Email, error) {
	if err := ValidateEmailInput(in); err != nil {
		return Email{}, err
	}
	return s.appendEmail(Email{
		Envelope: in.Envelope,
		Subject:  in.Subject,
		HTMLBody: in.HTMLBody,
		TextBody: in.TextBody,
	})
}

// AddTemplatedEmail records a templated send. Subject and bodies are
// generated by RenderTemplate; the template reference and model are stored
// as supplied.
func (s *MemoryStore) AddTemplatedEmail(in TemplatedEmailInput) (Email, error) {
	if err := ValidateTemplatedEmailInput(in); err != nil {
		return Email{}, err
	}
	content, err := RenderTemplate(TemplateRef{ID: in.TemplateID, Alias: in.TemplateAlias}, in.TemplateModel)
	if err != nil {
		return Email{}, err
	}
	return s.appendEmail(Email{
		Envelope:      in.Envelope,
		Subject:       content.Subject,
		HTMLBody:      content.HTMLBody,
		TextBody:      content.TextBody,
		TemplateID:    in.TemplateID,
		TemplateAlias: in.TemplateAlias,
		TemplateModel: in.TemplateModel,
	})
}

func (s *MemoryStore) appendEmail(e Email) (Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.MessageID = s.messageID()
	e.SubmittedAt = s.Clock.Now().UTC().Format(submittedAtLayout)
	e.ErrorCode = ErrorCodeNone
	e.StatusMessage = StatusOK
	if err := s.Emails.Insert(e); err != nil {
		return Email{}, err
	}
	return e, nil
}

// AddTemplate validates and stores a new template under the next template id.
func (s *MemoryStore) AddTemplate(in TemplateCreateInput) (Template, error) {
	if err := ValidateTemplateInput(in); err != nil {
		return Template{}, err
	}
	if err := CheckTemplate(in); err != nil {
		return Template{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := buildTemplate(s.templateID.peek(), in)
	if err := s.Templates.Insert(t); err != nil {
		return Template{}, err
	}
	s.templateID.take()
	return t, nil
}

// ListEmails returns every stored email in insertion order.
func (s *MemoryStore) ListEmails() []Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Emails.List()
}

// FilterEmails returns the stored emails matching predicate, in insertion order.
func (s *MemoryStore) FilterEmails(predicate func(Email) bool) []Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emails := s.Emails.Filter(predicate)
	if emails == nil {
		emails = []Email{}
	}
	return emails
}

// ListThings returns every stored Thing in insertion order.
func (s *MemoryStore) ListThings() []Thing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Things.List()
}

// GetTemplate looks a template up by numeric id, falling back to alias.
func (s *MemoryStore) GetTemplate(idOrAlias string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.Templates.Get(idOrAlias); ok {
		return t, true
	}
	matches := s.Templates.Filter(func(t Template) bool {
		alias, ok := t.Alias.Get()
		return ok && alias == idOrAlias
	})
	if len(matches) == 0 {
		return Template{}, false
	}
	return matches[0], true
}

// ListTemplates returns a page of templates, optionally restricted to one type.
func (s *MemoryStore) ListTemplates(offset, count int, templateType string) memdb.Page[Template] {
	var pred func(Template) bool
	if templateType != "" && templateType != "All" {
		pred = func(t Template) bool { return t.TemplateType == templateType }
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Templates.Paginate(offset, count, pred)
}

// stateSnapshot is the JSON-serializable state for admin endpoints.
type stateSnapshot struct {
	IDCounter         *int64     `json:"idCounter,omitempty"`
	TemplateIDCounter *int64     `json:"templateIdCounter,omitempty"`
	Things            []Thing    `json:"things"`
	Emails            []Email    `json:"emails"`
	Templates         []Template `json:"templates"`
}

// Snapshot returns the full state as a JSON-serializable value.
func (s *MemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idc, tc := s.thingIDs.peek(), s.templateID.peek()
	return stateSnapshot{
		IDCounter:         &idc,
		TemplateIDCounter: &tc,
		Things:            s.Things.List(),
		Emails:            s.Emails.List(),
		Templates:         s.Templates.List(),
	}
}

// LoadState replaces the full state from a JSON body. Every record is
// validated before anything is replaced. Missing counters are derived so
// that new identifiers never collide with loaded ones.
func (s *MemoryStore) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	nextThing := firstThingID
	for _, th := range snap.Things {
		if err := ValidateThing(th); err != nil {
			return err
		}
		if n, err := strconv.ParseInt(th.ID, 10, 64); err == nil && n >= nextThing {
			nextThing = n + 1
		}
	}
	for _, e := range snap.Emails {
		if err := ValidateEmail(e); err != nil {
			return err
		}
	}
	nextTemplate := firstTemplateID
	for _, t := range snap.Templates {
		if err := ValidateTemplate(t); err != nil {
			return err
		}
		if t.TemplateID >= nextTemplate {
			nextTemplate = t.TemplateID + 1
		}
	}
	if snap.IDCounter != nil {
		if *snap.IDCounter < nextThing {
			return fmt.Errorf("%w: idCounter %d would reuse a loaded thing id", ErrInvalidInput, *snap.IDCounter)
		}
		nextThing = *snap.IDCounter
	}
	if snap.TemplateIDCounter != nil {
		if *snap.TemplateIDCounter < nextTemplate {
			return fmt.Errorf("%w: templateIdCounter %d would reuse a loaded template id", ErrInvalidInput, *snap.TemplateIDCounter)
		}
		nextTemplate = *snap.TemplateIDCounter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	things, emails, templates := s.Things.List(), s.Emails.List(), s.Templates.List()
	if err := s.Things.Load(snap.Things); err != nil {
		return err
	}
	if err := s.Emails.Load(snap.Emails); err != nil {
		_ = s.Things.Load(things)
		return err
	}
	if err := s.Templates.Load(snap.Templates); err != nil {
		_ = s.Things.Load(things)
		_ = s.Emails.Load(emails)
		_ = s.Templates.Load(templates)
		return err
	}
	s.thingIDs.reset(nextThing)
	s.templateID.reset(nextTemplate)
	return nil
}

// Reset clears all state.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Things.Reset()
	s.Emails.Reset()
	s.Templates.Reset()
	s.thingIDs.reset(firstThingID)
	s.templateID.reset(firstTemplateID)
	s.Clock.Reset()
}

// SubmittedAtTime parses an Email's SubmittedAt field.
func SubmittedAtTime(e Email) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.SubmittedAt)
}
