// Package board keeps a client-side mirror of the server's board: an
// authoritative snapshot replaced after each round trip, plus a speculative
// overlay for moves still in flight. Consumers render the overlaid view
// immediately and reconcile once the server answers; a failed move is
// reverted so the view again equals the last authoritative state.
package board

import (
	"errors"
	"sync"

	"kanban-api/domain"
)

var (
	// ErrUnknownSection is returned when a staged move names a section the
	// mirror has never seen.
	ErrUnknownSection = errors.New("section not in local board")
	// ErrTaskNotInSource is returned when the task is not currently shown in
	// the declared source section.
	ErrTaskNotInSource = errors.New("task not in declared source section")
)

// Store is the client-side board mirror. All methods are safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sections []domain.Section
	pending  []*PendingMove
}

// PendingMove is a speculative relocation applied locally but not yet
// confirmed by the server.
type PendingMove struct {
	store         *Store
	taskID        string
	sourceID      string
	destinationID string
	settled       bool
}

// NewStore creates an empty board mirror.
func NewStore() *Store {
	return &Store{}
}

// Replace installs a fresh authoritative snapshot, discarding any pending
// overlays; the server state it reflects already includes or excludes them.
func (s *Store) Replace(sections []domain.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = cloneSections(sections)
	s.pending = nil
}

// Snapshot returns the board as it should render right now: the last
// authoritative state with all pending moves applied on top.
func (s *Store) Snapshot() []domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := cloneSections(s.sections)
	for _, m := range s.pending {
		applyMove(view, m.taskID, m.sourceID, m.destinationID)
	}
	return view
}

// StageMove validates a relocation against the local view and applies it
// speculatively. The returned ticket must be settled exactly once: Commit
// with the server's record on success, Revert on any failure.
func (s *Store) StageMove(taskID, sourceID, destinationID string) (*PendingMove, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := cloneSections(s.sections)
	for _, m := range s.pending {
		applyMove(view, m.taskID, m.sourceID, m.destinationID)
	}

	source := findSection(view, sourceID)
	if source == nil {
		return nil, ErrUnknownSection
	}
	if findSection(view, destinationID) == nil {
		return nil, ErrUnknownSection
	}
	if findTask(source.Tasks, taskID) == nil {
		return nil, ErrTaskNotInSource
	}

	move := &PendingMove{
		store:         s,
		taskID:        taskID,
		sourceID:      sourceID,
		destinationID: destinationID,
	}
	s.pending = append(s.pending, move)
	return move, nil
}

// Commit folds the server's authoritative post-move record into the mirror
// and drops the overlay.
func (m *PendingMove) Commit(server domain.Task) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.settled {
		return
	}
	m.settled = true
	s.removePending(m)

	removeTask(s.sections, server.ID)
	if dest := findSection(s.sections, server.SectionID); dest != nil {
		stored := server
		stored.Section = nil
		dest.Tasks = append(dest.Tasks, stored)
	}
}

// Revert discards the overlay; the board renders as if the move was never
// requested.
func (m *PendingMove) Revert() {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.settled {
		return
	}
	m.settled = true
	s.removePending(m)
}

func (s *Store) removePending(target *PendingMove) {
	for i, m := range s.pending {
		if m == target {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func cloneSections(sections []domain.Section) []domain.Section {
	out := make([]domain.Section, len(sections))
	for i, sec := range sections {
		out[i] = sec
		out[i].Tasks = make([]domain.Task, len(sec.Tasks))
		copy(out[i].Tasks, sec.Tasks)
	}
	return out
}

func findSection(sections []domain.Section, id string) *domain.Section {
	for i := range sections {
		if sections[i].ID == id {
			return &sections[i]
		}
	}
	return nil
}

func findTask(tasks []domain.Task, id string) *domain.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// applyMove mutates the view in place, relocating the task when both
// endpoints resolve; a move that no longer applies is a no-op.
func applyMove(sections []domain.Section, taskID, sourceID, destinationID string) {
	source := findSection(sections, sourceID)
	dest := findSection(sections, destinationID)
	if source == nil || dest == nil {
		return
	}
	for i := range source.Tasks {
		if source.Tasks[i].ID == taskID {
			task := source.Tasks[i]
			source.Tasks = append(source.Tasks[:i], source.Tasks[i+1:]...)
			task.SectionID = destinationID
			dest.Tasks = append(dest.Tasks, task)
			return
		}
	}
}

func removeTask(sections []domain.Section, taskID string) {
	for i := range sections {
		tasks := sections[i].Tasks
		for j := range tasks {
			if tasks[j].ID == taskID {
				sections[i].Tasks = append(tasks[:j], tasks[j+1:]...)
				return
			}
		}
	}
}
