package domain

import "time"

// Task is a single board item. It belongs to exactly one section at all
// times; SectionID is a mandatory foreign key.
type Task struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"size:2000;not null" json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Assignee    string    `gorm:"size:100;not null" json:"assignee"`
	SectionID   string    `gorm:"size:36;not null;index" json:"sectionId"`
	Section     *Section  `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// TaskPatch carries a partial task update. Nil fields keep the stored value.
type TaskPatch struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	Assignee    *string
	SectionID   *string
}
