package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
)

func (h *Handler) listProjects(c *gin.Context) {
	projects, err := h.Projects.ListProjects(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]ProjectResponse, len(projects))
	for i := range projects {
		resp[i] = projectToResponse(projects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createProject(c *gin.Context) {
	var req domain.CreateProjectInput
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.Projects.CreateProject(c.Request.Context(), principal(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectToResponse(*project))
}

func (h *Handler) getProject(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	project, err := h.Projects.GetProject(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectToResponse(*project))
}

func (h *Handler) updateProject(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	var req domain.UpdateProjectInput
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.Projects.UpdateProject(c.Request.Context(), principal(c).UserID, id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectToResponse(*project))
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	if err := h.Projects.DeleteProject(c.Request.Context(), principal(c).UserID, id); err != nil {
		h.writeError(c, err)
		return
	}

	var warnings []string
	if h.Exports != nil && h.Exports.Enabled() {
		purgeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.Exports.PurgeExports(purgeCtx, id); err != nil {
			h.logFor(c).WithError(err).WithField("project_id", id).Warn("purge exports")
			warnings = append(warnings, "failed to remove project exports from storage")
		}
	}

	resp := gin.H{"deleted": true}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportProject(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	result, err := h.Exports.ExportProject(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ExportResponse{
		Key:       result.Key,
		Location:  result.Location,
		URL:       result.URL,
		ExpiresAt: formatTime(result.ExpiresAt),
	})
}

func (h *Handler) listExports(c *gin.Context) {
	id, ok := parseID(c, "project")
	if !ok {
		return
	}
	objects, err := h.Exports.ListExports(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
