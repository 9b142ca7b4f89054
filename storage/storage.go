package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kanban-api/domain"
)

// Store persists users, sections and tasks in a relational database. It owns
// rank assignment for new sections; everything else is plain row access.
type Store struct {
	db    *gorm.DB
	ranks *domain.RankSource
}

// New opens (or creates) the database at the given DSN, migrates the schema
// and returns a ready Store. A nil clock falls back to the system clock.
func New(dsn string, clock domain.Clock) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Section{}, &domain.Task{}); err != nil {
		return nil, err
	}
	return &Store{db: db, ranks: domain.NewRankSource(clock)}, nil
}

// CreateUser persists a new user. The caller provides the password hash;
// a taken email is reported as a conflict.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ConflictError{Reason: "email already taken"}
	}
	return s.db.WithContext(ctx).Create(user).Error
}

// UserByEmail returns the user registered under the given email.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, NotFoundError{Entity: "user"}
		}
		return domain.User{}, err
	}
	return user, nil
}

// UserByID returns the user with the given identity.
func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, NotFoundError{Entity: "user"}
		}
		return domain.User{}, err
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error
	return count, err
}

// ListSections returns all sections ordered by rank, each with its tasks in
// insertion order.
func (s *Store) ListSections(ctx context.Context) ([]domain.Section, error) {
	sections := []domain.Section{}
	err := s.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("rank ASC").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Tasks == nil {
			sections[i].Tasks = []domain.Task{}
		}
	}
	return sections, nil
}

// SectionByID returns a single section with its tasks.
func (s *Store) SectionByID(ctx context.Context, id string) (domain.Section, error) {
	var section domain.Section
	err := s.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&section, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Section{}, NotFoundError{Entity: "section"}
		}
		return domain.Section{}, err
	}
	if section.Tasks == nil {
		section.Tasks = []domain.Task{}
	}
	return section, nil
}

// CreateSection creates a section at the end of the board, or immediately
// after the section named by insertAfterID. An unresolvable insertAfterID is
// an error, never a silent fall-back to end-of-board.
func (s *Store) CreateSection(ctx context.Context, name, insertAfterID string) (domain.Section, error) {
	var rank int64
	if insertAfterID != "" {
		var after domain.Section
		if err := s.db.WithContext(ctx).First(&after, "id = ?", insertAfterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Section{}, NotFoundError{Entity: "section"}
			}
			return domain.Section{}, err
		}
		rank = domain.RankAfter(after.Rank)
	} else {
		rank = s.ranks.Next()
	}
	section := domain.Section{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Rank:  rank,
		Tasks: []domain.Task{},
	}
	if err := s.db.WithContext(ctx).Create(&section).Error; err != nil {
		return domain.Section{}, err
	}
	return section, nil
}

// RenameSection updates a section's display name.
func (s *Store) RenameSection(ctx context.Context, id, name string) (domain.Section, error) {
	result := s.db.WithContext(ctx).Model(&domain.Section{}).Where("id = ?", id).Update("name", strings.TrimSpace(name))
	if result.Error != nil {
		return domain.Section{}, result.Error
	}
	if result.RowsAffected == 0 {
		return domain.Section{}, NotFoundError{Entity: "section"}
	}
	return s.SectionByID(ctx, id)
}

// DeleteSection removes a section and every task it still owns. Orphaned
// tasks are never left behind; cascade is this store's foreign-key policy.
func (s *Store) DeleteSection(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Section{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return NotFoundError{Entity: "section"}
		}
		return nil
	})
}

// TasksBySection returns the tasks of a section in insertion order. The
// section's existence is re-checked at call time.
func (s *Store) TasksBySection(ctx context.Context, sectionID string) ([]domain.Task, error) {
	if err := s.sectionExists(ctx, sectionID); err != nil {
		return nil, err
	}
	tasks := []domain.Task{}
	err := s.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask persists a new task in its target section.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (domain.Task, error) {
	if err := s.sectionExists(ctx, task.SectionID); err != nil {
		return domain.Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Assignee = strings.TrimSpace(task.Assignee)
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return domain.Task{}, err
	}
	return *task, nil
}

// UpdateTask applies a partial update; nil patch fields keep stored values.
// A section change re-validates the target section.
func (s *Store) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var task domain.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Task{}, NotFoundError{Entity: "task"}
		}
		return domain.Task{}, err
	}
	if patch.SectionID != nil {
		if err := s.sectionExists(ctx, *patch.SectionID); err != nil {
			return domain.Task{}, err
		}
		task.SectionID = *patch.SectionID
	}
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Assignee != nil {
		task.Assignee = strings.TrimSpace(*patch.Assignee)
	}
	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return domain.Task{}, err
	}
	return s.reloadTask(ctx, id)
}

// DeleteTask removes a task. Tasks have no children, so nothing cascades.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFoundError{Entity: "task"}
	}
	return nil
}

func (s *Store) sectionExists(ctx context.Context, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Section{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return NotFoundError{Entity: "section"}
	}
	return nil
}
