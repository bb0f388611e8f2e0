package task

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action names understood by Call.
const (
	ActionAdd     = "add_task"
	ActionDelete  = "delete_task"
	ActionPreview = "preview_task"
	ActionUpdate  = "update_task"
	ActionHydrate = "hydrate"
	ActionRefresh = "$refresh"
)

// Action is one client-triggered method call.
type Action struct {
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`
}

// ActionError reports a malformed action; the cycle is rejected before any
// store write.
type ActionError struct {
	Action string
	Reason string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %q: %s", e.Action, e.Reason)
}

// Call runs one interaction cycle: hydrate, dispatch the action, hydrate.
func (c *Component) Call(ctx context.Context, st *State, a Action) error {
	if err := c.Hydrate(ctx, st); err != nil {
		return err
	}
	if err := c.dispatch(ctx, st, a); err != nil {
		return err
	}
	return c.Hydrate(ctx, st)
}

// Validate checks the action name and arguments without touching the store.
// Callers handling several actions validate them all before calling any.
func Validate(a Action) error {
	switch a.Name {
	case ActionHydrate, ActionRefresh, "", ActionAdd:
		return nil
	case ActionDelete, ActionPreview, ActionUpdate:
		_, err := idArg(a)
		return err
	default:
		return &ActionError{Action: a.Name, Reason: "unknown action"}
	}
}

func (c *Component) dispatch(ctx context.Context, st *State, a Action) error {
	if err := Validate(a); err != nil {
		return err
	}
	switch a.Name {
	case ActionHydrate, ActionRefresh, "":
		return nil
	case ActionAdd:
		return c.AddTask(ctx, st)
	}

	id, err := idArg(a)
	if err != nil {
		return err
	}
	switch a.Name {
	case ActionDelete:
		return c.DeleteTask(ctx, st, id)
	case ActionPreview:
		return c.PreviewTask(ctx, st, id)
	default:
		return c.UpdateTask(ctx, st, id)
	}
}

func idArg(a Action) (int64, error) {
	if len(a.Args) != 1 {
		return 0, &ActionError{Action: a.Name, Reason: fmt.Sprintf("want 1 argument, got %d", len(a.Args))}
	}
	id, err := ParseID(a.Args[0])
	if err != nil {
		return 0, &ActionError{Action: a.Name, Reason: err.Error()}
	}
	return id, nil
}

// ParseID accepts the id shapes a client may send: JSON numbers (float64 or
// json.Number), Go integers and decimal strings.
func ParseID(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, fmt.Errorf("invalid id %v", x)
		}
		return int64(x), nil
	case json.Number:
		return strconv.ParseInt(x.String(), 10, 64)
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", x)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("invalid id type %T", v)
	}
}
