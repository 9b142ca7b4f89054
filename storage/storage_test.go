package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"kanban-api/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	store, err := New(":memory:", clock)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	return store, clock
}

func mustSection(t *testing.T, store *Store, name, insertAfterID string) domain.Section {
	t.Helper()
	section, err := store.CreateSection(context.Background(), name, insertAfterID)
	if err != nil {
		t.Fatalf("create section %q: %v", name, err)
	}
	return section
}

func mustTask(t *testing.T, store *Store, name, sectionID string) domain.Task {
	t.Helper()
	task, err := store.CreateTask(context.Background(), &domain.Task{
		Name:        name,
		Description: "desc of " + name,
		DueDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Assignee:    "alice",
		SectionID:   sectionID,
	})
	if err != nil {
		t.Fatalf("create task %q: %v", name, err)
	}
	return task
}

func TestCreateUserAndLookup(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	user := domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated user ID")
	}

	byEmail, err := store.UserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("lookup by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("expected user %q, got %q", user.ID, byEmail.ID)
	}

	byID, err := store.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if byID.Email != user.Email {
		t.Fatalf("expected email %q, got %q", user.Email, byID.Email)
	}

	count, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, &first); err != nil {
		t.Fatalf("create user: %v", err)
	}

	second := domain.User{Name: "Other", Email: "alice@example.com", PasswordHash: "hash2"}
	err := store.CreateUser(ctx, &second)
	var conflict ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestUserByEmailMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.UserByEmail(context.Background(), "nobody@example.com")
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "user" {
		t.Fatalf("expected entity 'user', got %q", nf.Entity)
	}
}

func TestCreateSectionEndOfBoardOrder(t *testing.T) {
	store, clock := newTestStore(t)

	todo := mustSection(t, store, "Todo", "")
	clock.Advance(3 * time.Second)
	doing := mustSection(t, store, "Doing", "")
	clock.Advance(3 * time.Second)
	done := mustSection(t, store, "Done", "")

	if !(todo.Rank < doing.Rank && doing.Rank < done.Rank) {
		t.Fatalf("expected increasing ranks, got %d %d %d", todo.Rank, doing.Rank, done.Rank)
	}

	sections, err := store.ListSections(context.Background())
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	for i, name := range []string{"Todo", "Doing", "Done"} {
		if sections[i].Name != name {
			t.Fatalf("expected section %d to be %q, got %q", i, name, sections[i].Name)
		}
		if sections[i].Tasks == nil {
			t.Fatalf("expected non-nil task slice for %q", name)
		}
	}
}

func TestCreateSectionInsertAfter(t *testing.T) {
	store, clock := newTestStore(t)

	todo := mustSection(t, store, "Todo", "")
	clock.Advance(time.Hour)
	done := mustSection(t, store, "Done", "")

	review := mustSection(t, store, "Review", todo.ID)
	if review.Rank != todo.Rank+domain.RankStep {
		t.Fatalf("expected rank %d, got %d", todo.Rank+domain.RankStep, review.Rank)
	}

	sections, err := store.ListSections(context.Background())
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	want := []string{"Todo", "Review", "Done"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
	_ = done
}

func TestCreateSectionInsertAfterMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateSection(context.Background(), "Orphan", "no-such-section")
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	// No silent fall-back to end-of-board.
	sections, listErr := store.ListSections(context.Background())
	if listErr != nil {
		t.Fatalf("list sections: %v", listErr)
	}
	if len(sections) != 0 {
		t.Fatalf("expected no sections created, got %d", len(sections))
	}
}

func TestRenameSection(t *testing.T) {
	store, _ := newTestStore(t)

	section := mustSection(t, store, "Todo", "")
	renamed, err := store.RenameSection(context.Background(), section.ID, "Backlog")
	if err != nil {
		t.Fatalf("rename section: %v", err)
	}
	if renamed.Name != "Backlog" {
		t.Fatalf("expected renamed section, got %q", renamed.Name)
	}
	if renamed.Rank != section.Rank {
		t.Fatalf("rename must not change rank: %d != %d", renamed.Rank, section.Rank)
	}

	_, err = store.RenameSection(context.Background(), "missing", "X")
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteSectionCascadesTasks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	section := mustSection(t, store, "Todo", "")
	other := mustSection(t, store, "Done", section.ID)
	doomed := mustTask(t, store, "doomed", section.ID)
	kept := mustTask(t, store, "kept", other.ID)

	if err := store.DeleteSection(ctx, section.ID); err != nil {
		t.Fatalf("delete section: %v", err)
	}

	if _, err := store.TasksBySection(ctx, section.ID); err == nil {
		t.Fatal("expected missing section after delete")
	}
	if _, err := store.UpdateTask(ctx, doomed.ID, domain.TaskPatch{}); err == nil {
		t.Fatal("expected cascade-deleted task to be gone")
	}

	tasks, err := store.TasksBySection(ctx, other.ID)
	if err != nil {
		t.Fatalf("list surviving tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != kept.ID {
		t.Fatalf("expected surviving task %q, got %+v", kept.ID, tasks)
	}
}

func TestCreateTaskMissingSection(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateTask(context.Background(), &domain.Task{
		Name:        "stray",
		Description: "d",
		Assignee:    "bob",
		SectionID:   "missing",
	})
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCreateTaskTrimsAssignee(t *testing.T) {
	store, _ := newTestStore(t)
	section := mustSection(t, store, "Todo", "")

	task, err := store.CreateTask(context.Background(), &domain.Task{
		Name:        "t",
		Description: "d",
		Assignee:    "  bob  ",
		SectionID:   section.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Assignee != "bob" {
		t.Fatalf("expected trimmed assignee, got %q", task.Assignee)
	}
}

func TestUpdateTaskPartialPatch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	section := mustSection(t, store, "Todo", "")
	task := mustTask(t, store, "write docs", section.ID)

	newName := "write better docs"
	updated, err := store.UpdateTask(ctx, task.ID, domain.TaskPatch{Name: &newName})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected new name, got %q", updated.Name)
	}
	if updated.Description != task.Description {
		t.Fatalf("description must be retained, got %q", updated.Description)
	}
	if updated.Assignee != task.Assignee {
		t.Fatalf("assignee must be retained, got %q", updated.Assignee)
	}
	if updated.SectionID != section.ID {
		t.Fatalf("section must be retained, got %q", updated.SectionID)
	}
}

func TestUpdateTaskRejectsMissingSection(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	section := mustSection(t, store, "Todo", "")
	task := mustTask(t, store, "t", section.ID)

	missing := "no-such-section"
	_, err := store.UpdateTask(ctx, task.ID, domain.TaskPatch{SectionID: &missing})
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	// Failed update leaves the task untouched.
	reloaded, err := store.UpdateTask(ctx, task.ID, domain.TaskPatch{})
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.SectionID != section.ID {
		t.Fatalf("expected section unchanged, got %q", reloaded.SectionID)
	}
}

func TestDeleteTask(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	section := mustSection(t, store, "Todo", "")
	task := mustTask(t, store, "t", section.ID)

	if err := store.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	var nf NotFoundError
	if err := store.DeleteTask(ctx, task.ID); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestTasksBySectionInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	section := mustSection(t, store, "Todo", "")

	first := mustTask(t, store, "first", section.ID)
	second := mustTask(t, store, "second", section.ID)

	tasks, err := store.TasksBySection(context.Background(), section.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Fatalf("expected insertion order [%s %s], got %+v", first.ID, second.ID, tasks)
	}
}
