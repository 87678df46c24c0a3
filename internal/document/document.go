// Package document owns a resume document and the mutation API that edits it.
// Every effective mutation bumps the revision and notifies change listeners so views
// can be re-derived from a fresh snapshot.
package document

import (
	"sync"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	kindExperience = "experience"
	kindEducation  = "education"
)

// Listener is called after every effective mutation with the new revision and a snapshot.
// Listeners run synchronously on the mutating goroutine, outside the document lock.
type Listener func(revision uint64, snapshot types.Resume)

// Option configures a Document.
type Option func(*Document)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Document) {
		d.ids = g
	}
}

// Document is a mutable resume guarded for concurrent use.
type Document struct {
	mu        sync.RWMutex
	resume    types.Resume
	revision  uint64
	ids       IDGenerator
	listeners map[int]Listener
	nextLis   int
}

// New creates a document seeded with a copy of seed. Missing or duplicate entry IDs in the
// seed are replaced with fresh ones.
func New(seed types.Resume, opts ...Option) *Document {
	d := &Document{
		ids:       UUIDGenerator{},
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.resume = d.normalize(seed)
	return d
}

// Snapshot returns a deep copy of the current document.
func (d *Document) Snapshot() types.Resume {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resume.Clone()
}

// Revision returns the number of effective mutations applied so far.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// OnChange registers a listener and returns a function that removes it.
func (d *Document) OnChange(l Listener) func() {
	d.mu.Lock()
	id := d.nextLis
	d.nextLis++
	d.listeners[id] = l
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// SetPersonalField overwrites one personal field.
func (d *Document) SetPersonalField(field types.PersonalField, value string) error {
	var err error
	d.mutate(func(r *types.Resume) bool {
		err = r.Personal.Set(field, value)
		return err == nil
	})
	return err
}

// SetThemeColor overwrites the accent color. Any string is accepted.
func (d *Document) SetThemeColor(color string) {
	d.mutate(func(r *types.Resume) bool {
		r.ThemeColor = color
		return true
	})
}

// SetSkills commits the skills input text verbatim.
func (d *Document) SetSkills(text string) {
	d.mutate(func(r *types.Resume) bool {
		r.Skills = text
		return true
	})
}

// AddExperience prepends an empty experience entry and returns its ID.
func (d *Document) AddExperience() string {
	var id string
	d.mutate(func(r *types.Resume) bool {
		id = d.freshID(kindExperience, experienceIDs(r.Experience))
		entry := types.ExperienceEntry{ID: id, Description: types.NewExperienceDescription}
		r.Experience = append([]types.ExperienceEntry{entry}, r.Experience...)
		return true
	})
	return id
}

// AddEducation prepends an empty education entry and returns its ID.
func (d *Document) AddEducation() string {
	var id string
	d.mutate(func(r *types.Resume) bool {
		id = d.freshID(kindEducation, educationIDs(r.Education))
		r.Education = append([]types.EducationEntry{{ID: id}}, r.Education...)
		return true
	})
	return id
}

// UpdateExperienceField sets one field of the entry with the given ID and reports whether
// an entry matched. An unknown ID is silently ignored; an unknown field name is an error.
func (d *Document) UpdateExperienceField(id string, field types.ExperienceField, value string) (bool, error) {
	if !types.ValidExperienceField(string(field)) {
		return false, &types.UnknownFieldError{Section: kindExperience, Field: string(field)}
	}
	matched := d.mutate(func(r *types.Resume) bool {
		for i := range r.Experience {
			if r.Experience[i].ID == id {
				_ = r.Experience[i].Set(field, value)
				return true
			}
		}
		return false
	})
	return matched, nil
}

// UpdateEducationField sets one field of the entry with the given ID and reports whether
// an entry matched. An unknown ID is silently ignored; an unknown field name is an error.
func (d *Document) UpdateEducationField(id string, field types.EducationField, value string) (bool, error) {
	if !types.ValidEducationField(string(field)) {
		return false, &types.UnknownFieldError{Section: kindEducation, Field: string(field)}
	}
	matched := d.mutate(func(r *types.Resume) bool {
		for i := range r.Education {
			if r.Education[i].ID == id {
				_ = r.Education[i].Set(field, value)
				return true
			}
		}
		return false
	})
	return matched, nil
}

// RemoveExperience drops the entry with the given ID. Unknown IDs are a no-op.
func (d *Document) RemoveExperience(id string) {
	d.mutate(func(r *types.Resume) bool {
		for i := range r.Experience {
			if r.Experience[i].ID == id {
				r.Experience = append(r.Experience[:i:i], r.Experience[i+1:]...)
				return true
			}
		}
		return false
	})
}

// RemoveEducation drops the entry with the given ID. Unknown IDs are a no-op.
func (d *Document) RemoveEducation(id string) {
	d.mutate(func(r *types.Resume) bool {
		for i := range r.Education {
			if r.Education[i].ID == id {
				r.Education = append(r.Education[:i:i], r.Education[i+1:]...)
				return true
			}
		}
		return false
	})
}

// Replace swaps the whole document for a copy of next, re-issuing missing or duplicate IDs.
func (d *Document) Replace(next types.Resume) {
	d.mutate(func(r *types.Resume) bool {
		*r = d.normalize(next)
		return true
	})
}

// Experience returns a copy of the experience entry with the given ID.
func (d *Document) Experience(id string) (types.ExperienceEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.resume.Experience {
		if e.ID == id {
			return e, true
		}
	}
	return types.ExperienceEntry{}, false
}

// mutate applies fn under the write lock and returns fn's result. When fn reports a change
// the revision is bumped and listeners are notified after the lock is released.
func (d *Document) mutate(fn func(r *types.Resume) bool) bool {
	d.mu.Lock()
	if !fn(&d.resume) {
		d.mu.Unlock()
		return false
	}
	d.revision++
	rev := d.revision
	snapshot := d.resume.Clone()
	listeners := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		listeners = append(listeners, l)
	}
	d.mu.Unlock()

	for _, l := range listeners {
		l(rev, snapshot)
	}
	return true
}

// normalize deep-copies r and makes every entry ID non-empty and unique within its list.
func (d *Document) normalize(r types.Resume) types.Resume {
	out := r.Clone()

	seen := make(map[string]bool, len(out.Experience))
	for i := range out.Experience {
		if id := out.Experience[i].ID; id == "" || seen[id] {
			out.Experience[i].ID = d.freshID(kindExperience, seen)
		}
		seen[out.Experience[i].ID] = true
	}

	seen = make(map[string]bool, len(out.Education))
	for i := range out.Education {
		if id := out.Education[i].ID; id == "" || seen[id] {
			out.Education[i].ID = d.freshID(kindEducation, seen)
		}
		seen[out.Education[i].ID] = true
	}

	return out
}

// freshID asks the generator for IDs until one is not in taken.
func (d *Document) freshID(kind string, taken map[string]bool) string {
	for {
		id := d.ids.NewID(kind)
		if id != "" && !taken[id] {
			return id
		}
	}
}

func experienceIDs(entries []types.ExperienceEntry) map[string]bool {
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids
}

func educationIDs(entries []types.EducationEntry) map[string]bool {
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids
}
