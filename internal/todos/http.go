package todos

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	maxTitleLen = 200
	maxTokenLen = 16
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

func RegisterRoutes(r chi.Router, repo Repository) {
	m := NewManager(repo)

	r.Route("/todos", func(r chi.Router) {
		r.Post("/", createTodo(repo))
		r.Get("/", queryTodos(m))
		r.Put("/", initTodos(repo))

		r.Get("/{id}", getTodo(repo))
		r.Patch("/{id}", updateTodo(repo))
		r.Delete("/{id}", deleteTodo(repo))
	})
}

func createTodo(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Data
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		if vErrs := validateCreate(req); len(vErrs) > 0 {
			writeValidation(w, vErrs)
			return
		}

		t, err := repo.Add(req)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func queryTodos(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, vErrs := criteriaFromQuery(r.URL.Query())
		if len(vErrs) > 0 {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_query", Details: vErrs})
			return
		}

		todos, err := m.Query(r.Context(), c)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		if todos == nil {
			todos = []Todo{}
		}
		writeJSON(w, http.StatusOK, todos)
	}
}

func initTodos(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var set []Data
		if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		var vErrs []fieldError
		for i, d := range set {
			for _, fe := range validateCreate(d) {
				fe.Field = fmt.Sprintf("[%d].%s", i, fe.Field)
				vErrs = append(vErrs, fe)
			}
		}
		if len(vErrs) > 0 {
			writeValidation(w, vErrs)
			return
		}

		if err := repo.Init(set); err != nil {
			writeStoreError(w, r, err)
			return
		}
		todos, err := repo.List()
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, todos)
	}
}

func getTodo(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		t, found, err := repo.Get(id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func updateTodo(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		// Patch has no id field; unknown keys are dropped
		var p Patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}
		if vErrs := validateUpdate(p); len(vErrs) > 0 {
			writeValidation(w, vErrs)
			return
		}

		if err := repo.Update(id, p); err != nil {
			writeStoreError(w, r, err)
			return
		}
		t, found, err := repo.Get(id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteTodo(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := repo.Delete(id); err != nil {
			writeStoreError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errResponse{
			Error:   "invalid_id",
			Details: []fieldError{{Field: "id", Message: "id must be a positive integer"}},
		})
		return 0, false
	}
	return id, true
}

// criteriaFromQuery sets a filter for every parameter present in q, even
// when its value is empty.
func criteriaFromQuery(q url.Values) (Criteria, []fieldError) {
	var (
		c    Criteria
		errs []fieldError
	)
	if q.Has("completed") {
		b, err := strconv.ParseBool(q.Get("completed"))
		if err != nil {
			errs = append(errs, fieldError{Field: "completed", Message: "completed must be true or false"})
		} else {
			c.Completed = &b
		}
	}
	if q.Has("month") {
		m := q.Get("month")
		c.Month = &m
	}
	if q.Has("year") {
		y := q.Get("year")
		c.Year = &y
	}
	return c, errs
}

func validateCreate(d Data) []fieldError {
	var errs []fieldError
	errs = append(errs, validateTitle(d.Title)...)
	errs = append(errs, validateToken("month", d.Month)...)
	errs = append(errs, validateToken("year", d.Year)...)
	return errs
}

func validateUpdate(p Patch) []fieldError {
	var errs []fieldError
	if p.Title != nil {
		errs = append(errs, validateTitle(*p.Title)...)
	}
	if p.Month != nil {
		errs = append(errs, validateToken("month", *p.Month)...)
	}
	if p.Year != nil {
		errs = append(errs, validateToken("year", *p.Year)...)
	}
	return errs
}

func validateTitle(title string) []fieldError {
	var errs []fieldError

	if strings.TrimSpace(title) == "" {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: "title is required",
		})
	}

	if l := len(title); l > maxTitleLen {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", maxTitleLen),
		})
	}

	return errs
}

func validateToken(field, v string) []fieldError {
	if len(v) > maxTokenLen {
		return []fieldError{{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, maxTokenLen),
		}}
	}
	return nil
}

func writeValidation(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, errResponse{
		Error:   "validation_error",
		Details: errs,
	})
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrTitleRequired) {
		writeValidation(w, []fieldError{{Field: "title", Message: "title is required"}})
		return
	}
	slog.ErrorContext(r.Context(), "store_error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
