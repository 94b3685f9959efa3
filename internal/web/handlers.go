package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/service"
	"github.com/JonMunkholm/csvrules/internal/web/templates"
)

// multipartOverhead is the allowance for form boundaries and headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a multipart form is kept in memory
// before spilling to temporary files.
const multipartMemory = 32 << 20

var errBadRequest = errors.New("bad request")

// handleIndex renders the parser listing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.Page("Parsers", templates.ParserIndex(s.service.Parsers())).Render(r.Context(), w)
}

// handleHealth reports liveness with catalog and limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"parsers": catalog.Count(),
		"parses":  s.service.Limiter().Status(),
	})
}

// handleListParsers returns every parser, optionally filtered by ?group=.
func (s *Server) handleListParsers(w http.ResponseWriter, r *http.Request) {
	all := s.service.Parsers()
	if group := r.URL.Query().Get("group"); group != "" {
		filtered := all[:0]
		for _, p := range all {
			if p.Group == group {
				filtered = append(filtered, p)
			}
		}
		all = filtered
	}
	writeJSON(w, r, http.StatusOK, all)
}

// handleGetParser returns one parser with its rules in match order.
func (s *Server) handleGetParser(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Describe(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

// handleParse runs a parser over the uploaded CSV and returns every row.
// ?limit=N caps the rows; with ?truncate=true the excess is dropped
// instead of failing the request.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	truncate := r.URL.Query().Get("truncate") == "true"

	body, size, done, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer done()

	res, err := s.service.Parse(r.Context(), service.Request{
		Parser:   chi.URLParam(r, "name"),
		Body:     body,
		Size:     size,
		Limit:    limit,
		Truncate: truncate,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handlePreview renders the first rows of an upload as an HTML table.
// HTMX requests get the table fragment only.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	body, size, done, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer done()

	res, err := s.service.Parse(r.Context(), service.Request{
		Parser:   chi.URLParam(r, "name"),
		Body:     body,
		Size:     size,
		Limit:    s.cfg.Parse.PreviewRows,
		Truncate: true,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view := templates.PreviewTable(res)
	if r.Header.Get("HX-Request") != "true" {
		view = templates.Page("Preview: "+res.Parser, view)
	}
	_ = view.Render(r.Context(), w)
}

// readUpload returns the CSV stream of a request: the "file" part of a
// multipart form, or the raw body for any other content type. done must be
// called once the stream has been consumed.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (io.Reader, int64, func(), error) {
	maxSize := s.cfg.Parse.MaxFileSize

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
				return nil, 0, nil, fmt.Errorf("%w: %v", service.ErrFileTooLarge, err)
			}
			return nil, 0, nil, fmt.Errorf("%w: invalid form: %v", errBadRequest, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, 0, nil, service.ErrNoFile
		}
		return file, header.Size, func() {
			file.Close()
			_ = r.MultipartForm.RemoveAll()
		}, nil
	}

	if r.ContentLength == 0 {
		return nil, 0, nil, service.ErrNoFile
	}
	size := r.ContentLength
	if size < 0 {
		size = 0
	}
	return r.Body, size, func() {}, nil
}

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}
