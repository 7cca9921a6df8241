package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"synapse/internal/notestore"
)

type generateInsightsRequest struct {
	SourceNoteID string `json:"source_note_id"`
}

type generateInsightsResponse struct {
	JobID   string `json:"job_id"`
	TraceID string `json:"trace_id"`
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req generateInsightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.SourceNoteID == "" {
		respondError(w, http.StatusBadRequest, errors.New("source_note_id is required"))
		return
	}

	jobID, traceID := s.jobs.Create(r.Context())
	go s.orch.Run(context.Background(), jobID, req.SourceNoteID)

	respondJSON(w, http.StatusAccepted, generateInsightsResponse{JobID: jobID, TraceID: traceID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, ok := s.jobs.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Errorf("job %q not found or expired", id))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.jobs.Cancel(id) {
		respondError(w, http.StatusNotFound, fmt.Errorf("job %q not found", id))
		return
	}
	view, _ := s.jobs.Get(id)
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sw, ok := newSSEWriter(w)
	if !ok {
		respondError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	ch := s.jobs.Events(r.Context(), id)
	for payload := range ch {
		if err := sw.send(payload); err != nil {
			return
		}
	}
}

type chunkResponse struct {
	ChunkID   string `json:"chunkId"`
	NoteID    string `json:"noteId"`
	NoteTitle string `json:"noteTitle"`
	Content   string `json:"content"`
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	chunk, err := s.store.GetChunk(r.Context(), id)
	if err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	note, _, err := s.store.GetNote(r.Context(), chunk.NoteID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, chunkResponse{
		ChunkID:   chunk.ID,
		NoteID:    chunk.NoteID,
		NoteTitle: note.Title,
		Content:   chunk.Content,
	})
}
