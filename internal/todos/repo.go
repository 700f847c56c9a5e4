package todos

import (
	"errors"
	"strings"
	"sync"
)

var ErrTitleRequired = errors.New("title required")

// Repository owns the canonical todo collection. Reads always return copies.
// Delete and Update on an unknown id are no-ops, not errors.
type Repository interface {
	Add(d Data) (Todo, error)
	Delete(id int64) error
	Update(id int64, p Patch) error
	Get(id int64) (Todo, bool, error)
	List() ([]Todo, error)
	Init(set []Data) error
}

// InMemoryRepo keeps todos in insertion order. The id counter belongs to the
// repo and is never rewound, so ids stay unique across Delete and Init.
type InMemoryRepo struct {
	mu    sync.Mutex
	seq   int64
	todos []Todo
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{}
}

func (r *InMemoryRepo) Add(d Data) (Todo, error) {
	if err := validateData(d); err != nil {
		return Todo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := newTodo(r.nextID(), d)
	r.todos = append(r.todos, t)
	return t, nil
}

func (r *InMemoryRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(id); i != -1 {
		r.todos = append(r.todos[:i], r.todos[i+1:]...)
	}
	return nil
}

func (r *InMemoryRepo) Update(id int64, p Patch) error {
	if err := validatePatch(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(id); i != -1 {
		r.todos[i].apply(p)
	}
	return nil
}

func (r *InMemoryRepo) Get(id int64) (Todo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i == -1 {
		return Todo{}, false, nil
	}
	return r.todos[i], true, nil
}

func (r *InMemoryRepo) List() ([]Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Todo, len(r.todos))
	copy(out, r.todos)
	return out, nil
}

func (r *InMemoryRepo) Init(set []Data) error {
	for _, d := range set {
		if err := validateData(d); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	todos := make([]Todo, 0, len(set))
	for _, d := range set {
		todos = append(todos, newTodo(r.nextID(), d))
	}
	r.todos = todos
	return nil
}

// caller holds r.mu
func (r *InMemoryRepo) nextID() int64 {
	r.seq++
	return r.seq
}

// caller holds r.mu
func (r *InMemoryRepo) index(id int64) int {
	for i, t := range r.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func validateData(d Data) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

func validatePatch(p Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}
