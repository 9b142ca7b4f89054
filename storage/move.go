package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"kanban-api/domain"
)

// MoveTask relocates one task from a declared source section to a
// destination section. Validation is fail-fast and ordered: source section,
// destination section, task, then the task's actual membership in the
// declared source. Only after every check passes is the task's section
// reference rewritten, and the returned record is re-read from the store so
// callers get the authoritative post-move state.
//
// The validate-then-mutate sequence is deliberately not wrapped in a
// transaction: two racing moves of the same task can both validate against
// the same snapshot and the later commit wins. Callers reconcile against the
// returned state rather than assuming their view was final.
func (s *Store) MoveTask(ctx context.Context, taskID, sourceID, destinationID string) (domain.Task, error) {
	task, err := s.validateMove(ctx, taskID, sourceID, destinationID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.applyMove(ctx, task.ID, destinationID); err != nil {
		return domain.Task{}, err
	}
	return s.reloadTask(ctx, task.ID)
}

// validateMove runs the guarded checks and returns the task as read during
// validation. It performs no mutation.
func (s *Store) validateMove(ctx context.Context, taskID, sourceID, destinationID string) (domain.Task, error) {
	if err := s.sectionExists(ctx, sourceID); err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return domain.Task{}, NotFoundError{Entity: "source section"}
		}
		return domain.Task{}, err
	}
	if err := s.sectionExists(ctx, destinationID); err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return domain.Task{}, NotFoundError{Entity: "destination section"}
		}
		return domain.Task{}, err
	}
	var task domain.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Task{}, NotFoundError{Entity: "task"}
		}
		return domain.Task{}, err
	}
	if task.SectionID != sourceID {
		return domain.Task{}, ConflictError{Reason: "task is not in the declared source section"}
	}
	return task, nil
}

// applyMove rewrites the task's section reference. This is the entire state
// change of a relocation; no rank or in-section position is touched.
func (s *Store) applyMove(ctx context.Context, taskID, destinationID string) error {
	return s.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", taskID).
		Update("section_id", destinationID).Error
}

// reloadTask re-reads a task with its owning section populated.
func (s *Store) reloadTask(ctx context.Context, id string) (domain.Task, error) {
	var task domain.Task
	err := s.db.WithContext(ctx).Preload("Section").First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Task{}, NotFoundError{Entity: "task"}
		}
		return domain.Task{}, err
	}
	return task, nil
}
