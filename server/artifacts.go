package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/nettee/synphora/artifact"
)

type artifactListResponse struct {
	Artifacts []artifact.Artifact `json:"artifacts"`
}

type createArtifactRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

type generateSampleRequest struct {
	Topic string `json:"topic,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if artifacts == nil {
		artifacts = []artifact.Artifact{}
	}
	writeJSON(w, http.StatusOK, artifactListResponse{Artifacts: artifacts})
}

func (s *Server) createArtifact(w http.ResponseWriter, r *http.Request) {
	var req createArtifactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	a, err := s.store.Create(r.Context(), artifact.Draft{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Type:        artifact.TypeOriginal,
		Role:        artifact.RoleUser,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.log.Info("artifact created", "artifact_id", a.ID, "title", a.Title)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) uploadArtifact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	if !utf8.Valid(data) {
		writeError(w, http.StatusBadRequest, "File must be UTF-8 text")
		return
	}

	a, err := s.store.Create(r.Context(), artifact.Draft{
		Title:   header.Filename,
		Content: string(data),
		Type:    artifact.TypeOriginal,
		Role:    artifact.RoleUser,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.log.Info("artifact uploaded", "artifact_id", a.ID, "filename", header.Filename, "bytes", len(data))
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.log.Info("artifact deleted", "artifact_id", id)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Artifact deleted successfully"})
}

func (s *Server) generateSample(w http.ResponseWriter, r *http.Request) {
	var req generateSampleRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if s.sampler == nil {
		writeError(w, http.StatusServiceUnavailable, "Sample generation is not configured")
		return
	}

	a, err := s.sampler.Sample(r.Context(), req.Topic)
	if err != nil {
		s.log.Error("sample generation failed", "topic", req.Topic, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate sample article")
		return
	}
	s.log.Info("sample article generated", "artifact_id", a.ID, "title", a.Title)
	writeJSON(w, http.StatusOK, a)
}
