// Package task implements the task list component: a server-side view whose
// state lives for exactly one interaction cycle.
//
// Each cycle builds a fresh State from what the client sent (the title
// buffer), hydrates the task snapshot from the store, runs at most one action
// and hydrates again so the rendered list matches the store.
package task

import (
	"context"
	"errors"
	"fmt"

	"taskview/internal/logging"
	"taskview/internal/store"
	"taskview/pkg/mq"
)

// Name is the component name used by the interaction protocol.
const Name = "task"

// Repository is the record store as seen by the component.
type Repository interface {
	AllTasks(ctx context.Context) ([]store.Task, error)
	GetTask(ctx context.Context, id int64) (store.Task, bool, error)
	CreateTask(ctx context.Context, title string) (store.Task, error)
	UpdateTask(ctx context.Context, id int64, title string) error
	DeleteTask(ctx context.Context, id int64) error
}

// State is owned by a single interaction cycle and never shared.
type State struct {
	// Title is the input buffer. Empty unless an edit is pending.
	Title string
	Tasks []store.Task
	// Notices holds the cycle's user-visible notifications, if enabled.
	Notices []string
}

// Editing reports whether the buffer holds a pending edit.
func (s *State) Editing() bool { return s.Title != "" }

type Component struct {
	repo    Repository
	events  mq.Publisher
	notices bool
	log     *logging.Logger
}

type Option func(*Component)

// WithEvents publishes an mq.Event for every add, update and delete that
// changed the store.
func WithEvents(p mq.Publisher) Option {
	return func(c *Component) { c.events = p }
}

// WithNotices appends a notice to State.Notices for every effective mutation.
func WithNotices(enabled bool) Option {
	return func(c *Component) { c.notices = enabled }
}

func WithLogger(l *logging.Logger) Option {
	return func(c *Component) { c.log = l }
}

func New(repo Repository, opts ...Option) *Component {
	c := &Component{repo: repo, events: mq.Noop{}, log: logging.NopLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Hydrate replaces st.Tasks with a fresh snapshot in store order.
func (c *Component) Hydrate(ctx context.Context, st *State) error {
	tasks, err := c.repo.AllTasks(ctx)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	st.Tasks = tasks
	return nil
}

// AddTask persists the buffer as a new task unless it is empty. The buffer
// is always cleared.
func (c *Component) AddTask(ctx context.Context, st *State) error {
	title := st.Title
	st.Title = ""
	if title == "" {
		return nil
	}
	t, err := c.repo.CreateTask(ctx, title)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	c.log.Debug("task added", "task_id", t.ID)
	c.emit(st, mq.Event{Topic: mq.TopicTaskAdded, TaskID: t.ID, Title: t.Title}, "task added")
	return nil
}

// DeleteTask removes the task if it exists; a missing id is a no-op.
func (c *Component) DeleteTask(ctx context.Context, st *State, id int64) error {
	t, ok, err := c.repo.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if !ok {
		return nil
	}
	if err := c.repo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// removed by someone else since the lookup
			return nil
		}
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	c.log.Debug("task deleted", "task_id", id)
	c.emit(st, mq.Event{Topic: mq.TopicTaskDeleted, TaskID: id, Title: t.Title}, "task deleted")
	return nil
}

// PreviewTask loads the task's title into the buffer for editing.
func (c *Component) PreviewTask(ctx context.Context, st *State, id int64) error {
	t, ok, err := c.repo.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("preview task %d: %w", id, err)
	}
	if ok {
		st.Title = t.Title
	}
	return nil
}

// UpdateTask overwrites the task's title with the buffer and clears it. A
// missing id leaves both store and buffer untouched.
func (c *Component) UpdateTask(ctx context.Context, st *State, id int64) error {
	_, ok, err := c.repo.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if !ok {
		return nil
	}
	if err := c.repo.UpdateTask(ctx, id, st.Title); err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	c.log.Debug("task updated", "task_id", id)
	c.emit(st, mq.Event{Topic: mq.TopicTaskUpdated, TaskID: id, Title: st.Title}, "task updated")
	st.Title = ""
	return nil
}

func (c *Component) emit(st *State, ev mq.Event, notice string) {
	if c.notices {
		st.Notices = append(st.Notices, notice)
	}
	if err := mq.PublishEvent(c.events, ev); err != nil {
		c.log.Warn("publish task event failed", "topic", ev.Topic, "task_id", ev.TaskID, "error", err.Error())
	}
}
