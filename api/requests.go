package api

import (
	"errors"
	"io"
	"net/mail"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type signupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic,omitempty"`
}

func (r *signupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	return validatePassword(r.Password)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	return validatePassword(r.Password)
}

// validatePassword enforces the signup schema: at least 8 characters, and at
// most 72 bytes because of bcrypt's input limit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return errors.New("password must be at most 72 characters")
	}
	return nil
}

type sectionRequest struct {
	Name string `json:"name"`
	// SectionID names an existing section the new one is inserted after.
	// Empty means end of board.
	SectionID string `json:"sectionId,omitempty"`
}

func (r *sectionRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

type renameSectionRequest struct {
	Name string `json:"name"`
}

func (r *renameSectionRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

type taskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Assignee    string `json:"assignee"`
	SectionID   string `json:"sectionId"`
}

func (r *taskRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description is required")
	}
	if strings.TrimSpace(r.Assignee) == "" {
		return errors.New("assignee is required")
	}
	if strings.TrimSpace(r.SectionID) == "" {
		return errors.New("section id is required")
	}
	if strings.TrimSpace(r.DueDate) == "" {
		return errors.New("due date is required")
	}
	return nil
}

// updateTaskRequest carries a partial task update; nil fields keep the
// stored values.
type updateTaskRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	SectionID   *string `json:"sectionId,omitempty"`
}

type moveTaskRequest struct {
	TaskID               string `json:"taskId"`
	SourceSectionID      string `json:"sourceSectionId"`
	DestinationSectionID string `json:"destinationSectionId"`
}

func (r *moveTaskRequest) Validate() error {
	if r.TaskID == "" {
		return errors.New("task id is required")
	}
	if r.SourceSectionID == "" {
		return errors.New("source section id is required")
	}
	if r.DestinationSectionID == "" {
		return errors.New("destination section id is required")
	}
	return nil
}
