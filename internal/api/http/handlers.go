package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spatialdeck/backend/internal/api/ws"
	"github.com/spatialdeck/backend/internal/domain/catalog"
	"github.com/spatialdeck/backend/internal/domain/registry"
	"github.com/spatialdeck/backend/internal/domain/restore"
	"github.com/spatialdeck/backend/internal/domain/workspace"
	"github.com/spatialdeck/backend/internal/infrastructure/logging"
	"github.com/spatialdeck/backend/internal/shared/types"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	registry     *registry.Registry
	workspaces   *workspace.Manager
	catalog      *catalog.Catalog
	orchestrator *restore.Orchestrator
	hub          *ws.Hub
	logger       *logging.Logger
}

// NewHandlers creates a new handler set.
func NewHandlers(
	reg *registry.Registry,
	workspaces *workspace.Manager,
	cat *catalog.Catalog,
	orchestrator *restore.Orchestrator,
	hub *ws.Hub,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handlers{
		registry:     reg,
		workspaces:   workspaces,
		catalog:      cat,
		orchestrator: orchestrator,
		hub:          hub,
		logger:       logger,
	}
}

// Root handles health check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "SpatialDeck Workspace Service",
		"version": "0.3.0",
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"windows":    h.registry.Count(),
		"workspaces": h.workspaces.Stats(),
		"catalog":    h.catalog.Count(),
	})
}

type createWindowRequest struct {
	Kind     string          `json:"kind" binding:"required"`
	ID       *int            `json:"id,omitempty"`
	Position *types.Position `json:"position,omitempty"`
}

// CreateWindow allocates a new window record.
func (h *Handlers) CreateWindow(c *gin.Context) {
	var req createWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := types.WindowKind(req.Kind)
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown window kind: " + req.Kind})
		return
	}

	position := types.DefaultPosition()
	if req.Position != nil {
		position = *req.Position
	}

	var rec *types.WindowRecord
	if req.ID != nil {
		created, err := h.registry.CreateWithID(*req.ID, kind, position)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		rec = created
	} else {
		rec = h.registry.Create(kind, position)
	}

	h.hub.Broadcast("window_created", map[string]interface{}{"window_id": rec.ID})
	c.JSON(http.StatusCreated, rec)
}

// ListWindows lists all live windows in id order.
func (h *Handlers) ListWindows(c *gin.Context) {
	windows := h.registry.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"windows": windows,
		"count":   len(windows),
	})
}

// GetWindow retrieves one window.
func (h *Handlers) GetWindow(c *gin.Context) {
	id, ok := windowID(c)
	if !ok {
		return
	}

	rec, found := h.registry.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "window not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type updateWindowRequest struct {
	Position     *types.Position       `json:"position,omitempty"`
	Content      *string               `json:"content,omitempty"`
	Template     *types.ExportTemplate `json:"export_template,omitempty"`
	ImportSource *string               `json:"import_source,omitempty"`
	AddTags      []string              `json:"add_tags,omitempty"`
	Minimized    *bool                 `json:"minimized,omitempty"`
	Maximized    *bool                 `json:"maximized,omitempty"`
	Opacity      *float64              `json:"opacity,omitempty"`
	Payload      *types.Payload        `json:"payload,omitempty"`
}

// UpdateWindow applies a partial state mutation.
func (h *Handlers) UpdateWindow(c *gin.Context) {
	id, ok := windowID(c)
	if !ok {
		return
	}

	var req updateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := h.registry.UpdateState(id, func(rec *types.WindowRecord) {
		if req.Position != nil {
			rec.Position = *req.Position
		}
		if req.Content != nil {
			rec.State.Content = *req.Content
		}
		if req.Template != nil {
			rec.State.Template = *req.Template
		}
		if req.ImportSource != nil {
			rec.State.ImportSource = *req.ImportSource
		}
		for _, tag := range req.AddTags {
			rec.State.AddTag(tag)
		}
		if req.Minimized != nil {
			rec.State.Minimized = *req.Minimized
		}
		if req.Maximized != nil {
			rec.State.Maximized = *req.Maximized
		}
		if req.Opacity != nil {
			rec.State.Opacity = *req.Opacity
		}
		if req.Payload != nil {
			rec.State.Payload = req.Payload
		}
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "window not found"})
		return
	}

	rec, _ := h.registry.Get(id)
	c.JSON(http.StatusOK, rec)
}

// CloseWindow removes a window.
func (h *Handlers) CloseWindow(c *gin.Context) {
	id, ok := windowID(c)
	if !ok {
		return
	}

	removed := h.registry.Remove(id)
	if removed {
		h.hub.Broadcast("window_closed", map[string]interface{}{"window_id": id})
	}
	c.JSON(http.StatusOK, gin.H{"success": removed, "window_id": id})
}

// CloseAllWindows clears the registry.
func (h *Handlers) CloseAllWindows(c *gin.Context) {
	h.registry.RemoveAll()
	h.hub.Broadcast("windows_cleared", nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type saveWorkspaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	IsTemplate  bool   `json:"is_template,omitempty"`
}

// SaveWorkspace snapshots the registry into a stored document.
func (h *Handlers) SaveWorkspace(c *gin.Context) {
	var req saveWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta, err := h.workspaces.Save(c.Request.Context(), workspace.SaveOptions{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsTemplate:  req.IsTemplate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// ListWorkspaces lists catalog descriptors without decoding documents.
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	onlyTemplates := c.Query("templates") == "true"
	list := h.catalog.List(onlyTemplates)
	c.JSON(http.StatusOK, gin.H{
		"workspaces": list,
		"count":      len(list),
	})
}

// SearchWorkspaces searches descriptors by name, description and tags.
func (h *Handlers) SearchWorkspaces(c *gin.Context) {
	list := h.catalog.Search(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"workspaces": list,
		"count":      len(list),
	})
}

// GetWorkspace returns the raw stored document so external notebook tools
// can consume it directly.
func (h *Handlers) GetWorkspace(c *gin.Context) {
	data, err := h.workspaces.Document(c.Request.Context(), c.Param("name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, types.ErrFileRead) || errors.Is(err, types.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

type restoreRequest struct {
	ClearExisting bool `json:"clear_existing,omitempty"`
}

// RestoreWorkspace re-creates windows from a stored document. Window-opened
// events stream to WebSocket clients; the full result returns in the
// response body.
func (h *Handlers) RestoreWorkspace(c *gin.Context) {
	name := c.Param("name")

	var req restoreRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.orchestrator.Restore(
		c.Request.Context(),
		name,
		restore.Options{ClearExisting: req.ClearExisting},
		func(windowID int) error {
			h.hub.Broadcast("window_opened", map[string]interface{}{"window_id": windowID})
			return nil
		},
	)
	if err != nil {
		h.logger.Warn("Restore failed", zap.String("workspace", name), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	h.workspaces.MarkRestored()
	c.JSON(http.StatusOK, gin.H{
		"result":  result,
		"summary": result.Summary(),
		"success": result.IsFullySuccessful(),
	})
}

// DeleteWorkspace removes a stored document and its catalog entry.
func (h *Handlers) DeleteWorkspace(c *gin.Context) {
	name := c.Param("name")
	if err := h.workspaces.Delete(c.Request.Context(), name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, types.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "name": name})
}

// windowID parses the :id path parameter, responding 400 on garbage.
func windowID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window id must be an integer"})
		return 0, false
	}
	return id, true
}
