package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/jobs"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/pipeline"
	"github.com/markmdev/networking-copilot/internal/store"
)

const maxJSONBody = 1 << 20 // 1MB

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid request body: %v", err)
		return false
	}
	return true
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q model.SearchQuery
		if !decodeBody(w, r, maxJSONBody, &q) {
			return
		}
		sel, err := deps.Pipeline.Search(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"selected_profile":   sel.Selected,
			"selector_rationale": sel.Rationale,
		})
	}
}

func handleLookup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q model.SearchQuery
		if !decodeBody(w, r, maxJSONBody, &q) {
			return
		}
		out, err := deps.Pipeline.Lookup(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type upload struct {
	filename    string
	contentType string
	data        []byte
}

// readUpload reads the "file" part of a multipart form and checks it is an
// image.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, pipeline.KindValidation, pipeline.StageInput,
				"upload exceeds %d bytes", limit)
			return nil, false
		}
		badRequest(w, "invalid multipart form: %v", err)
		return nil, false
	}

	u := &upload{}
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		u.filename = header.Filename
		u.contentType = header.Header.Get("Content-Type")
		if u.data, err = io.ReadAll(file); err != nil {
			badRequest(w, "read upload: %v", err)
			return nil, false
		}
	}

	if err := extract.CheckInput(u.filename, u.data, u.contentType); err != nil {
		writeError(w, &pipeline.Error{Kind: pipeline.KindValidation, Stage: pipeline.StageExtract, Err: err})
		return nil, false
	}
	return u, true
}

func handleCapture(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := readUpload(w, r, deps.MaxUploadBytes)
		if !ok {
			return
		}
		id, err := deps.Jobs.Submit(u.filename, u.data, u.contentType)
		switch {
		case errors.Is(err, jobs.ErrQueueFull):
			httpError(w, http.StatusServiceUnavailable, pipeline.KindDependency, "queue", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, pipeline.KindInternal, "queue", "%v", err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id, "status": string(jobs.StatusQueued)})
	}
}

func handleCaptureSync(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := readUpload(w, r, deps.MaxUploadBytes)
		if !ok {
			return
		}
		out, err := deps.Pipeline.Capture(r.Context(), u.filename, u.data, u.contentType, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, ok := deps.Jobs.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, pipeline.KindNotFound, "", "job %s not found", id)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func handleLinkedIn(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if !decodeBody(w, r, maxJSONBody, &req) {
			return
		}
		snap, err := deps.Pipeline.FetchSnapshot(r.Context(), req.URL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleRun(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LinkedInData json.RawMessage `json:"linkedin_data"`
		}
		if !decodeBody(w, r, deps.MaxUploadBytes, &req) {
			return
		}
		out, err := deps.Pipeline.Direct(r.Context(), req.LinkedInData)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleListPeople(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := store.DefaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 500 {
				badRequest(w, "limit must be between 1 and 500")
				return
			}
			limit = n
		}
		recs, err := deps.Records.ListRecords(r.Context(), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, pipeline.KindInternal, "store", "list records: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleGetPerson(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := deps.Records.GetRecord(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, pipeline.KindNotFound, "store", "record %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, pipeline.KindInternal, "store", "get record: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
