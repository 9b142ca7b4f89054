package domain

import "time"

// Section is a board column grouping tasks. Rank is the only value the board
// sorts sections by; it is assigned once at creation and never rewritten.
type Section struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Rank      int64     `gorm:"not null;index" json:"rank"`
	Tasks     []Task    `gorm:"constraint:OnDelete:CASCADE" json:"tasks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Section model.
func (Section) TableName() string {
	return "sections"
}
