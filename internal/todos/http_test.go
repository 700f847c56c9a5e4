package todos

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestServer() (*chi.Mux, *InMemoryRepo) {
	repo := NewInMemoryRepo()
	r := chi.NewRouter()
	RegisterRoutes(r, repo)
	return r, repo
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errResponse {
	t.Helper()
	var e errResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("failed to parse error JSON: %v (body=%s)", err, rec.Body.String())
	}
	return e
}

func TestPostTodos_Success(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/todos", `{"title":"Buy Milk","month":"1","year":"2017","description":"Milk for baby"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d, body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var got Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if got.ID == 0 {
		t.Errorf("expected non-zero ID")
	}
	if got.Title != "Buy Milk" || got.Month != "1" || got.Year != "2017" || got.Description != "Milk for baby" {
		t.Errorf("unexpected todo: %+v", got)
	}
	if got.Completed {
		t.Errorf("new todos should default to Completed=false")
	}
}

func TestPostTodos_CompletedIgnoredOnCreate(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/todos", `{"title":"sneaky","completed":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	var got Todo
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Completed {
		t.Fatalf("create must not accept completed: %+v", got)
	}
}

func TestPostTodos_TitleRequired(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/todos", `{"title":""}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d, body=%s", rec.Code, rec.Body.String())
	}
	e := decodeErr(t, rec)
	if e.Error != "validation_error" || len(e.Details) != 1 || e.Details[0].Field != "title" {
		t.Errorf("unexpected error response: %+v", e)
	}
}

func TestPostTodos_TooLong(t *testing.T) {
	r, _ := newTestServer()

	body := `{"title":"` + strings.Repeat("x", maxTitleLen+1) + `","month":"` + strings.Repeat("1", maxTokenLen+1) + `"}`
	rec := do(r, http.MethodPost, "/todos", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if e := decodeErr(t, rec); len(e.Details) != 2 {
		t.Errorf("expected title and month errors, got %+v", e.Details)
	}
}

func TestPostTodos_InvalidJSON(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/todos", `{"title":`) // truncated/invalid JSON
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
	}
	if e := decodeErr(t, rec); e.Error != "invalid_json" {
		t.Errorf("expected error 'invalid_json', got %q", e.Error)
	}
}

func TestGetTodos_HappyPath(t *testing.T) {
	r, repo := newTestServer()

	seed, err := repo.Add(Data{Title: "seeded todo"})
	if err != nil {
		t.Fatalf("unexpected error seeding repo: %v", err)
	}
	if seed.ID == 0 {
		t.Fatalf("expected seeded todo to have an ID")
	}

	rec := do(r, http.MethodGet, "/todos", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var list []Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(list))
	}
	if list[0].Title != "seeded todo" {
		t.Errorf("expected first todo title 'seeded todo', got %q", list[0].Title)
	}
}

func TestGetTodos_EmptyIsArray(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodGet, "/todos?completed=true", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestGetTodos_Filters(t *testing.T) {
	r, repo := newTestServer()
	if err := repo.Init(tenTodos); err != nil {
		t.Fatalf("init: %v", err)
	}
	list, _ := repo.List()
	_ = repo.Update(list[5].ID, Patch{Completed: boolp(true)})

	cases := []struct {
		query string
		want  []string
	}{
		{"completed=true", []string{"JS229"}},
		{"month=4&year=2017", []string{"Buy Apples", "Buy Veggies", "Swim", "JS229", "Start new job", "Meditation"}},
		{"completed=false&month=4&year=2017", []string{"Buy Apples", "Buy Veggies", "Swim", "Start new job", "Meditation"}},
		{"year=2016", []string{"Buy chocolate", "Buy Veggies", "Meditation", "Go to the beach"}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := do(r, http.MethodGet, "/todos?"+tc.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var got []Todo
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to parse JSON: %v", err)
			}
			if !sameTitles(got, tc.want...) {
				t.Fatalf("got %v, want %v", titles(got), tc.want)
			}
		})
	}
}

func TestGetTodos_BadCompleted(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodGet, "/todos?completed=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if e := decodeErr(t, rec); e.Error != "invalid_query" {
		t.Errorf("expected invalid_query, got %q", e.Error)
	}
}

func TestTodoByID_Lifecycle(t *testing.T) {
	r, repo := newTestServer()
	td, _ := repo.Add(buyMilk)
	path := "/todos/" + strconv.FormatInt(td.ID, 10)

	rec := do(r, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = do(r, http.MethodPatch, path, `{"id":999,"completed":true,"colour":"blue","title":"Buy Oat Milk"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var got Todo
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != td.ID || !got.Completed || got.Title != "Buy Oat Milk" || got.Month != "1" {
		t.Fatalf("patch result: %+v", got)
	}
	var raw map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &raw)
	if _, ok := raw["colour"]; ok || len(raw) != 6 {
		t.Fatalf("expected exactly six fields, got %v", raw)
	}

	rec = do(r, http.MethodDelete, path, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = do(r, http.MethodGet, path, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}

	// absent ids: delete is a no-op, patch has nothing to return
	if rec = do(r, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete absent: expected 204, got %d", rec.Code)
	}
	if rec = do(r, http.MethodPatch, path, `{"completed":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("patch absent: expected 404, got %d", rec.Code)
	}
}

func TestTodoByID_BadID(t *testing.T) {
	r, _ := newTestServer()

	for _, target := range []string{"/todos/abc", "/todos/0", "/todos/-3"} {
		if rec := do(r, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestPatchTodo_BlankTitle(t *testing.T) {
	r, repo := newTestServer()
	td, _ := repo.Add(buyMilk)

	rec := do(r, http.MethodPatch, "/todos/"+strconv.FormatInt(td.ID, 10), `{"title":"   "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPutTodos_Init(t *testing.T) {
	r, repo := newTestServer()
	old, _ := repo.Add(buyMilk)

	rec := do(r, http.MethodPut, "/todos", `[{"title":"Buy Apples","year":"2017"},{"title":"Buy Veggies"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var list []Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if !sameTitles(list, "Buy Apples", "Buy Veggies") {
		t.Fatalf("unexpected listing: %v", titles(list))
	}
	if list[0].ID <= old.ID {
		t.Fatalf("init reused numbering: old %d, new %d", old.ID, list[0].ID)
	}
}

func TestPutTodos_ValidationNamesIndex(t *testing.T) {
	r, repo := newTestServer()
	_, _ = repo.Add(buyMilk)

	rec := do(r, http.MethodPut, "/todos", `[{"title":"ok"},{"title":""}]`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	e := decodeErr(t, rec)
	if len(e.Details) != 1 || e.Details[0].Field != "[1].title" {
		t.Fatalf("unexpected details: %+v", e.Details)
	}
	if list, _ := repo.List(); len(list) != 1 {
		t.Fatalf("rejected init changed the store: %d todos", len(list))
	}
}
