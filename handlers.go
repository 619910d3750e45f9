package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
)

type problemForm struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	CrewID      int64  `json:"crew_id" validate:"required,gt=0"`
	UserID      int64  `json:"user_id" validate:"omitempty,gt=0"`
}

type nodeForm struct {
	ProblemID   int64  `json:"problem_id" validate:"required,gt=0"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Description string `json:"description" validate:"required"`
	AuthorID    *int64 `json:"author_id" validate:"omitempty,gt=0"`
}

type solutionForm struct {
	ProblemID   int64  `json:"problem_id" validate:"required,gt=0"`
	RootCauseID int64  `json:"root_cause_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"required"`
	AuthorID    *int64 `json:"author_id" validate:"omitempty,gt=0"`
}

type created struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// author defaults to the session user when the form names nobody.
func author(s *Session, id *int64) *problem.UserID {
	if id != nil {
		return id
	}
	userID := s.UserID()
	if userID == 0 {
		return nil
	}
	return &userID
}

func (l *EightD) healthHandler(w http.ResponseWriter, r *http.Request) error {
	return sessionFrom(r.Context()).render(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (l *EightD) meHandler(w http.ResponseWriter, r *http.Request) error {
	s := sessionFrom(r.Context())
	u, err := l.m.User(r.Context(), s.UserID())
	if err != nil {
		return err
	}
	return s.render(w, http.StatusOK, u)
}

func (l *EightD) crewHandler(w http.ResponseWriter, r *http.Request) error {
	cl, err := l.m.Crews(r.Context())
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, cl)
}

func (l *EightD) userHandler(w http.ResponseWriter, r *http.Request) error {
	userID, err := pathID(r, "userID")
	if err != nil {
		return err
	}
	u, err := l.m.User(r.Context(), userID)
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, u)
}

func (l *EightD) problemsHandler(w http.ResponseWriter, r *http.Request) error {
	page := getPageNumber(r.URL.Query().Get("page"))
	pl, total, err := l.m.Problems(r.Context(), page)
	if err != nil {
		return err
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	pages := Pagination(PaginationConfig{
		page:  page,
		ipp:   itemsPerPage,
		total: total,
		url:   r.URL.Path,
		param: "page",
	})
	if link := pages.Link(page); link != "" {
		w.Header().Set("Link", link)
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, pl)
}

func (l *EightD) addProblemHandler(w http.ResponseWriter, r *http.Request) error {
	s := sessionFrom(r.Context())
	var form problemForm
	if err := decodeForm(r, &form); err != nil {
		return err
	}
	p := problem.Problem{
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		CrewID:      form.CrewID,
		CreatedByID: form.UserID,
	}
	if p.CreatedByID == 0 {
		p.CreatedByID = s.UserID()
	}
	if p.Title == "" {
		return ValidationErrors{"title": "is required"}
	}
	id, err := l.m.AddProblem(r.Context(), &p)
	if err != nil {
		return err
	}
	return s.render(w, http.StatusCreated, created{ID: id, Message: s.Lang("Problem created")})
}

func (l *EightD) problemHandler(w http.ResponseWriter, r *http.Request) error {
	problemID, err := pathID(r, "problemID")
	if err != nil {
		return err
	}
	p, err := l.m.Problem(r.Context(), problemID)
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, p)
}

// treeHandler answers with the nested tree, or with the pre-order list of
// nodes for ?view=flat.
func (l *EightD) treeHandler(w http.ResponseWriter, r *http.Request) error {
	problemID, err := pathID(r, "problemID")
	if err != nil {
		return err
	}
	s := sessionFrom(r.Context())
	switch r.URL.Query().Get("view") {
	case "", "tree":
		pt, err := l.m.Tree(r.Context(), problemID)
		if err != nil {
			return err
		}
		return s.render(w, http.StatusOK, pt)
	case "flat":
		pn, err := l.m.FlatTree(r.Context(), problemID)
		if err != nil {
			return err
		}
		return s.render(w, http.StatusOK, pn)
	}
	return &HTTPError{Code: http.StatusBadRequest, Message: "Unknown view"}
}

func (l *EightD) solutionsHandler(w http.ResponseWriter, r *http.Request) error {
	problemID, err := pathID(r, "problemID")
	if err != nil {
		return err
	}
	sl, err := l.m.Solutions(r.Context(), problemID)
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, sl)
}

func (l *EightD) nodeHandler(w http.ResponseWriter, r *http.Request) error {
	nodeID, err := pathID(r, "nodeID")
	if err != nil {
		return err
	}
	pn, err := l.m.Node(r.Context(), nodeID)
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, pn)
}

func (l *EightD) addNodeHandler(w http.ResponseWriter, r *http.Request) error {
	s := sessionFrom(r.Context())
	var form nodeForm
	if err := decodeForm(r, &form); err != nil {
		return err
	}
	n := node.Node{
		ProblemID:   form.ProblemID,
		ParentID:    form.ParentID,
		Description: strings.TrimSpace(form.Description),
		AuthorID:    author(s, form.AuthorID),
	}
	if n.Description == "" {
		return ValidationErrors{"description": "is required"}
	}
	id, err := l.m.AddNode(r.Context(), &n)
	if err != nil {
		return err
	}
	return s.render(w, http.StatusCreated, created{ID: id, Message: s.Lang("Root cause created")})
}

func (l *EightD) toggleHandler(w http.ResponseWriter, r *http.Request) error {
	nodeID, err := pathID(r, "nodeID")
	if err != nil {
		return err
	}
	n, err := l.m.ToggleRootCause(r.Context(), nodeID)
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, n)
}

func (l *EightD) solutionHandler(w http.ResponseWriter, r *http.Request) error {
	solutionID, err := pathID(r, "solutionID")
	if err != nil {
		return err
	}
	sol, err := l.m.Solution(r.Context(), solutionID)
	if err != nil {
		return err
	}
	return sessionFrom(r.Context()).render(w, http.StatusOK, sol)
}

func (l *EightD) addSolutionHandler(w http.ResponseWriter, r *http.Request) error {
	s := sessionFrom(r.Context())
	var form solutionForm
	if err := decodeForm(r, &form); err != nil {
		return err
	}
	sol := problem.Solution{
		ProblemID:   form.ProblemID,
		RootCauseID: form.RootCauseID,
		Description: strings.TrimSpace(form.Description),
		AuthorID:    author(s, form.AuthorID),
	}
	if sol.Description == "" {
		return ValidationErrors{"description": "is required"}
	}
	id, err := l.m.AddSolution(r.Context(), &sol)
	if err != nil {
		return err
	}
	return s.render(w, http.StatusCreated, created{ID: id, Message: s.Lang("Solution created")})
}
