package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// item mirrors one entry of a todos.json file: [{"title": "...", "done": false}].
type item struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// JSONFileCollector imports a todos.json file. The done flag has no
// counterpart in the task model and is dropped; empty titles are skipped the
// same way the component skips an empty buffer.
type JSONFileCollector struct{}

func NewJSONFileCollector() *JSONFileCollector { return &JSONFileCollector{} }

func (c *JSONFileCollector) Collect(ctx context.Context, st Sink, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}
	var items []item
	if err := json.Unmarshal(b, &items); err != nil {
		return 0, fmt.Errorf("json unmarshal: %w", err)
	}
	n := 0
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if it.Title == "" {
			continue
		}
		if _, err := st.CreateTask(ctx, it.Title); err != nil {
			return n, fmt.Errorf("create %q: %w", it.Title, err)
		}
		n++
	}
	return n, nil
}
