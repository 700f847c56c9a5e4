package todos

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Lister is the read side of a Repository.
type Lister interface {
	List() ([]Todo, error)
}

// Criteria filters a Query. A nil field does not filter on that dimension.
type Criteria struct {
	Completed *bool
	Month     *string
	Year      *string
}

// Manager answers filtered queries over a Lister. It holds no state of its
// own and never mutates the store.
type Manager struct {
	todos Lister
}

func NewManager(l Lister) *Manager {
	return &Manager{todos: l}
}

// Query returns copies of the todos matching every set field of c, in
// listing order.
func (m *Manager) Query(ctx context.Context, c Criteria) ([]Todo, error) {
	_, span := otel.Tracer("todos").Start(ctx, "todos.query")
	defer span.End()

	all, err := m.todos.List()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := all[:0]
	for _, t := range all {
		if c.match(t) {
			out = append(out, t)
		}
	}

	span.SetAttributes(c.attributes()...)
	span.SetAttributes(attribute.Int("todos.result_count", len(out)))
	return out, nil
}

func (c Criteria) match(t Todo) bool {
	if c.Completed != nil && t.Completed != *c.Completed {
		return false
	}
	if c.Month != nil && !t.IsWithinMonthYear(*c.Month, "") {
		return false
	}
	if c.Year != nil && !t.IsWithinMonthYear("", *c.Year) {
		return false
	}
	return true
}

func (c Criteria) attributes() []attribute.KeyValue {
	var kv []attribute.KeyValue
	if c.Completed != nil {
		kv = append(kv, attribute.Bool("todos.completed", *c.Completed))
	}
	if c.Month != nil {
		kv = append(kv, attribute.String("todos.month", *c.Month))
	}
	if c.Year != nil {
		kv = append(kv, attribute.String("todos.year", *c.Year))
	}
	return kv
}
