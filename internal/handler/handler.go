package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"canvasgroup/internal/codec"
	"canvasgroup/internal/domain"
	"canvasgroup/internal/loader"
	"canvasgroup/internal/repository"
	"canvasgroup/internal/service"
)

const defaultJournalLimit = 100

// Editor is the edit thread the handlers submit to
type Editor interface {
	Apply(ctx context.Context, op string, fn func(*service.Session) error) (uint64, error)
	View(ctx context.Context, fn func(*service.Session) error) error
	Snapshot() *domain.Snapshot
}

// TreeHandler handles containment tree API requests
type TreeHandler struct {
	editor    Editor
	journal   repository.Journal
	scenePath string
}

// NewTreeHandler creates a new tree handler. journal may be nil.
func NewTreeHandler(editor Editor, journal repository.Journal) *TreeHandler {
	return &TreeHandler{editor: editor, journal: journal}
}

// WithScenePath sets the file written by POST /api/scene/save
func (h *TreeHandler) WithScenePath(path string) *TreeHandler {
	h.scenePath = path
	return h
}

// Register adds the API routes to mux
func (h *TreeHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/scene", h.GetScene)
	mux.HandleFunc("POST /api/scene/save", h.SaveScene)
	mux.HandleFunc("GET /api/validate", h.Validate)
	mux.HandleFunc("GET /api/journal", h.ListJournal)
	mux.HandleFunc("DELETE /api/journal", h.ClearJournal)

	mux.HandleFunc("POST /api/items/{id}/move", h.MoveItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.DeleteItem)

	mux.HandleFunc("POST /api/groups", h.GroupItems)
	mux.HandleFunc("GET /api/groups/enclosing", h.EnclosingGroup)
	mux.HandleFunc("POST /api/groups/{id}/move", h.MoveGroup)
	mux.HandleFunc("POST /api/groups/{id}/merge", h.MergeGroups)
	mux.HandleFunc("POST /api/groups/{id}/ungroup", h.Ungroup)

	mux.HandleFunc("POST /api/wires", h.Connect)
	mux.HandleFunc("DELETE /api/wires/{id}", h.Disconnect)
	mux.HandleFunc("GET /api/ports/closest", h.ClosestPort)
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EditResponse is returned by every applied edit
type EditResponse struct {
	Version uint64 `json:"version"`
	GroupID string `json:"group_id,omitempty"`
	WireID  string `json:"wire_id,omitempty"`
}

// MoveRequest names the destination of a move or merge
type MoveRequest struct {
	GroupID  string `json:"group_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`
}

// GroupRequest creates a group around existing items and groups
type GroupRequest struct {
	Title    string   `json:"title,omitempty"`
	Children []string `json:"children"`
}

// ConnectRequest creates a wire
type ConnectRequest struct {
	From domain.PortRef `json:"from"`
	To   domain.PortRef `json:"to"`
}

// SaveResponse reports where the scene was written
type SaveResponse struct {
	Path    string `json:"path"`
	Version uint64 `json:"version"`
}

// ValidateResponse reports the result of a full invariant check
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Version uint64 `json:"version"`
	Error   string `json:"error,omitempty"`
}

// GetSnapshot returns the latest snapshot as JSON or, with ?format=yaml, YAML
func (h *TreeHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentType(c))
	if err := c.Export(h.editor.Snapshot(), w); err != nil {
		log.Printf("Failed to export snapshot: %v", err)
		// Can't write error response as we already set headers
	}
}

// GetScene returns the current tree as a scene description that can seed a
// new server
func (h *TreeHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return
	}

	var scene *domain.Scene
	if err := h.editor.View(r.Context(), func(s *service.Session) error {
		scene = domain.DeriveScene(s.Root())
		return nil
	}); err != nil {
		h.writeEditError(w, "Failed to read scene", err)
		return
	}

	w.Header().Set("Content-Type", contentType(c))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scene.%s", c.Format()))
	if err := c.ExportScene(scene, w); err != nil {
		log.Printf("Failed to export scene: %v", err)
	}
}

// SaveScene writes the current tree to the configured scene file
func (h *TreeHandler) SaveScene(w http.ResponseWriter, r *http.Request) {
	if h.scenePath == "" {
		h.writeError(w, "Scene path not configured", "", http.StatusNotFound)
		return
	}

	resp := SaveResponse{Path: h.scenePath}
	var saveErr error
	if err := h.editor.View(r.Context(), func(s *service.Session) error {
		resp.Version = s.Version()
		saveErr = loader.SaveScene(h.scenePath, s.Root())
		return nil
	}); err != nil {
		h.writeEditError(w, "Failed to save scene", err)
		return
	}
	if saveErr != nil {
		log.Printf("Failed to save scene to %s: %v", h.scenePath, saveErr)
		h.writeError(w, "Failed to save scene", saveErr.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("Scene saved: %s (version %d)", h.scenePath, resp.Version)
	h.writeJSON(w, resp, http.StatusOK)
}

func contentType(c codec.Exporter) string {
	if c.Format() == "yaml" {
		return "application/x-yaml"
	}
	return "application/json"
}

// Validate runs the full invariant check on the current tree
func (h *TreeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	resp := ValidateResponse{Valid: true}
	if err := h.editor.View(r.Context(), func(s *service.Session) error {
		resp.Version = s.Version()
		if verr := s.Root().Validate(); verr != nil {
			resp.Valid = false
			resp.Error = verr.Error()
		}
		return nil
	}); err != nil {
		h.writeEditError(w, "Failed to validate", err)
		return
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// ListJournal returns recent edits, or every edit of ?subject=id
func (h *TreeHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.writeError(w, "Journal disabled", "", http.StatusNotFound)
		return
	}

	var (
		entries []repository.Entry
		err     error
	)
	if subject := r.URL.Query().Get("subject"); subject != "" {
		entries, err = h.journal.ListBySubject(r.Context(), subject)
	} else {
		limit := defaultJournalLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			limit, err = strconv.Atoi(s)
			if err != nil || limit < 0 {
				h.writeError(w, "Invalid limit", s, http.StatusBadRequest)
				return
			}
		}
		entries, err = h.journal.List(r.Context(), limit)
	}
	if err != nil {
		log.Printf("Failed to list journal: %v", err)
		h.writeError(w, "Failed to list journal", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, entries, http.StatusOK)
}

// ClearJournal deletes every journal entry and reports how many were removed
func (h *TreeHandler) ClearJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.writeError(w, "Journal disabled", "", http.StatusNotFound)
		return
	}

	n, err := h.journal.Count(r.Context())
	if err != nil {
		log.Printf("Failed to count journal: %v", err)
		h.writeError(w, "Failed to clear journal", err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.journal.Clear(r.Context()); err != nil {
		log.Printf("Failed to clear journal: %v", err)
		h.writeError(w, "Failed to clear journal", err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("Journal cleared: %d entries", n)
	h.writeJSON(w, map[string]int64{"cleared": n}, http.StatusOK)
}

// MoveItem moves an item into the group named by group_id
func (h *TreeHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.GroupID == "" {
		h.writeError(w, "Invalid request body", "group_id is required", http.StatusBadRequest)
		return
	}

	h.edit(w, r, "move_item", func(s *service.Session) (EditResponse, error) {
		return EditResponse{GroupID: req.GroupID}, s.MoveItem(id, req.GroupID)
	})
}

// DeleteItem removes an item and its wires
func (h *TreeHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.edit(w, r, "delete_item", func(s *service.Session) (EditResponse, error) {
		return EditResponse{}, s.DeleteItem(id)
	})
}

// MoveGroup makes a group a child of target_id
func (h *TreeHandler) MoveGroup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TargetID == "" {
		h.writeError(w, "Invalid request body", "target_id is required", http.StatusBadRequest)
		return
	}

	h.edit(w, r, "move_group", func(s *service.Session) (EditResponse, error) {
		return EditResponse{GroupID: id}, s.MoveGroup(id, req.TargetID)
	})
}

// MergeGroups moves a group's contents into target_id and deletes it
func (h *TreeHandler) MergeGroups(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TargetID == "" {
		h.writeError(w, "Invalid request body", "target_id is required", http.StatusBadRequest)
		return
	}

	h.edit(w, r, "merge_groups", func(s *service.Session) (EditResponse, error) {
		return EditResponse{GroupID: req.TargetID}, s.MergeGroups(id, req.TargetID)
	})
}

// Ungroup dissolves a group into its parent
func (h *TreeHandler) Ungroup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.edit(w, r, "ungroup", func(s *service.Session) (EditResponse, error) {
		return EditResponse{}, s.Ungroup(id)
	})
}

// GroupItems creates a new group holding the listed children
func (h *TreeHandler) GroupItems(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Children) == 0 {
		h.writeError(w, "Invalid request body", "children is required", http.StatusBadRequest)
		return
	}

	h.editStatus(w, r, "group_items", http.StatusCreated, func(s *service.Session) (EditResponse, error) {
		g, err := s.GroupItems(req.Title, req.Children...)
		if err != nil {
			return EditResponse{}, err
		}
		return EditResponse{GroupID: g.ID}, nil
	})
}

// Connect creates a wire between two ports
func (h *TreeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.From.Item == "" || req.To.Item == "" {
		h.writeError(w, "Invalid request body", "from.item and to.item are required", http.StatusBadRequest)
		return
	}

	h.editStatus(w, r, "connect", http.StatusCreated, func(s *service.Session) (EditResponse, error) {
		wire, err := s.Connect(req.From, req.To)
		if err != nil {
			return EditResponse{}, err
		}
		return EditResponse{WireID: wire.ID, GroupID: wire.Group().ID}, nil
	})
}

// Disconnect removes a wire
func (h *TreeHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.edit(w, r, "disconnect", func(s *service.Session) (EditResponse, error) {
		return EditResponse{WireID: id}, s.Disconnect(id)
	})
}

// EnclosingGroup returns the deepest group whose frame contains the box
// x0,y0,x1,y1
func (h *TreeHandler) EnclosingGroup(w http.ResponseWriter, r *http.Request) {
	vals, err := floatParams(r, "x0", "y0", "x1", "y1")
	if err != nil {
		h.writeError(w, "Invalid query", err.Error(), http.StatusBadRequest)
		return
	}
	box := domain.Rect{X0: vals[0], Y0: vals[1], X1: vals[2], Y1: vals[3]}

	var id string
	if err := h.editor.View(r.Context(), func(s *service.Session) error {
		id = s.Root().MinimalEnclosingGroup(box).ID
		return nil
	}); err != nil {
		h.writeEditError(w, "Failed to query groups", err)
		return
	}

	h.writeJSON(w, map[string]string{"group_id": id}, http.StatusOK)
}

// ClosestPort returns the port nearest to x,y, optionally filtered by
// ?dir=in|out
func (h *TreeHandler) ClosestPort(w http.ResponseWriter, r *http.Request) {
	vals, err := floatParams(r, "x", "y")
	if err != nil {
		h.writeError(w, "Invalid query", err.Error(), http.StatusBadRequest)
		return
	}
	filter := domain.AnyPort
	switch dir := r.URL.Query().Get("dir"); dir {
	case "", "any":
	case "in":
		filter = domain.InPort
	case "out":
		filter = domain.OutPort
	default:
		h.writeError(w, "Invalid query", fmt.Sprintf("unknown dir %q", dir), http.StatusBadRequest)
		return
	}

	var ref *domain.PortRef
	if err := h.editor.View(r.Context(), func(s *service.Session) error {
		if p := s.Root().ClosestPort(vals[0], vals[1], filter); p != nil {
			ref = &domain.PortRef{Item: p.Item().ID, Port: p.Item().PortIndex(p)}
		}
		return nil
	}); err != nil {
		h.writeEditError(w, "Failed to query ports", err)
		return
	}
	if ref == nil {
		h.writeError(w, "Not found", "no matching port", http.StatusNotFound)
		return
	}

	h.writeJSON(w, ref, http.StatusOK)
}

// Helper methods

func (h *TreeHandler) edit(w http.ResponseWriter, r *http.Request, op string, fn func(*service.Session) (EditResponse, error)) {
	h.editStatus(w, r, op, http.StatusOK, fn)
}

func (h *TreeHandler) editStatus(w http.ResponseWriter, r *http.Request, op string, status int, fn func(*service.Session) (EditResponse, error)) {
	var resp EditResponse
	version, err := h.editor.Apply(r.Context(), op, func(s *service.Session) error {
		var err error
		resp, err = fn(s)
		return err
	})
	if err != nil {
		h.writeEditError(w, "Edit rejected", err)
		return
	}

	resp.Version = version
	h.writeJSON(w, resp, status)
}

func (h *TreeHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeEditError maps engine errors onto status codes
func (h *TreeHandler) writeEditError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrCycle), errors.Is(err, service.ErrGlobalGroup):
		h.writeError(w, "Invalid operation", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrPortDirection):
		h.writeError(w, "Invalid wire", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrDisconnected):
		h.writeError(w, "Invalid wire", err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, "Editor unavailable", err.Error(), http.StatusServiceUnavailable)
	default:
		log.Printf("%s: %v", msg, err)
		h.writeError(w, msg, err.Error(), http.StatusInternalServerError)
	}
}

func (h *TreeHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *TreeHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

func floatParams(r *http.Request, names ...string) ([]float64, error) {
	vals := make([]float64, len(names))
	q := r.URL.Query()
	for i, name := range names {
		s := q.Get(name)
		if s == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		vals[i] = v
	}
	return vals, nil
}
