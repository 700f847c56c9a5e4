package todos

// Todo is a single todo entry. Month and Year are opaque tokens where the
// empty string matches any value.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Completed   bool   `json:"completed"`
	Month       string `json:"month"`
	Year        string `json:"year"`
	Description string `json:"description"`
}

// Data is the input used to construct a Todo.
type Data struct {
	Title       string `json:"title"`
	Month       string `json:"month"`
	Year        string `json:"year"`
	Description string `json:"description"`
}

// Patch lists the fields Update may change. A nil field is left as is.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Month       *string `json:"month,omitempty"`
	Year        *string `json:"year,omitempty"`
	Description *string `json:"description,omitempty"`
}

func newTodo(id int64, d Data) Todo {
	return Todo{
		ID:          id,
		Title:       d.Title,
		Month:       d.Month,
		Year:        d.Year,
		Description: d.Description,
	}
}

func (t *Todo) apply(p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Month != nil {
		t.Month = *p.Month
	}
	if p.Year != nil {
		t.Year = *p.Year
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}

// IsWithinMonthYear reports whether t falls in the given month and year.
// An empty argument matches anything, and so does an empty stored value.
func (t Todo) IsWithinMonthYear(month, year string) bool {
	switch {
	case month == "" && year == "":
		return true
	case month == "":
		return t.Year == year || t.Year == ""
	case year == "":
		return t.Month == month || t.Month == ""
	default:
		return (t.Month == month || t.Month == "") &&
			(t.Year == year || t.Year == "")
	}
}
