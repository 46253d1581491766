package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"health": "OK"})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.catalog.List(r.Context(), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCountsByStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.catalog.CountsByStatus(r.Context(), r.URL.Query().Get("app_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	detail, err := parseDetail(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.catalog.Get(r.Context(), r.PathValue("id"), detail)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			err = &domain.ValidationError{Field: "body", Reason: "required"}
		}
		s.fail(w, r, err)
		return
	}

	id, err := s.controller.Start(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"workflow_id": id})
}

func (s *Server) handlePauseWorkflow(w http.ResponseWriter, r *http.Request) {
	status, err := s.controller.Pause(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleResumeWorkflow(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r.URL.Query(), "force", false)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body struct {
		Args []any `json:"args"`
	}
	if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, err)
		return
	}

	status, err := s.controller.Resume(r.Context(), r.PathValue("id"), domain.ResumeRequest{Force: force, Args: body.Args})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted_count": n})
}

func (s *Server) handleUniqueSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.catalog.UniqueSteps(r.Context(), r.URL.Query().Get("app_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

// parseListParams reads the listing query string. workflow_id is
// three-valued: absent means any ID, present with only empty values means
// no ID.
func parseListParams(q url.Values) (catalog.ListParams, error) {
	p := catalog.ListParams{
		AppID:  q.Get("app_id"),
		Status: q.Get("status"),
		SortBy: q.Get("sort_by"),
		IDs:    catalog.AnyID(),
	}

	if raw, ok := q["workflow_id"]; ok {
		ids := make([]string, 0, len(raw))
		for _, id := range raw {
			if id != "" {
				ids = append(ids, id)
			}
		}
		p.IDs = catalog.OnlyIDs(ids...)
	}

	var err error
	if p.OnlyActive, err = boolParam(q, "only_active", false); err != nil {
		return p, err
	}
	if p.SortAsc, err = boolParam(q, "sort_order_asc", false); err != nil {
		return p, err
	}
	if p.Skip, err = intParam(q, "skip", 0); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(q, "limit", catalog.DefaultPageSize); err != nil {
		return p, err
	}
	p.Detail, err = parseDetail(q)
	return p, err
}

func parseDetail(q url.Values) (domain.Detail, error) {
	last, err := boolParam(q, "last_task_run", true)
	if err != nil {
		return domain.Detail{}, err
	}
	prev, err := boolParam(q, "prev_task_runs", false)
	if err != nil {
		return domain.Detail{}, err
	}
	return domain.Detail{LastTaskRun: last, PrevTaskRuns: prev}, nil
}

func boolParam(q url.Values, key string, fallback bool) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.ValidationError{Field: key, Value: raw, Reason: "must be a boolean"}
	}
	return v, nil
}

func intParam(q url.Values, key string, fallback int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Value: raw, Reason: "must be an integer"}
	}
	return v, nil
}

// decodeBody decodes a JSON body into v. An empty body yields io.EOF.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return err
	case errors.As(err, &tooLarge):
		return fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, err)
	}
	return &domain.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
}
