package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
)

func (h *Handler) listTasks(c *gin.Context) {
	projectID, ok := parseID(c, "project")
	if !ok {
		return
	}
	tasks, err := h.Tasks.ListTasks(c.Request.Context(), projectID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createTask(c *gin.Context) {
	projectID, ok := parseID(c, "project")
	if !ok {
		return
	}
	var req domain.CreateTaskInput
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.Tasks.CreateTask(c.Request.Context(), principal(c).UserID, projectID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(*task))
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}
	task, err := h.Tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

// deleteTask removes the task; its comments go with it.
func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}
	if err := h.Tasks.DeleteTask(c.Request.Context(), principal(c).UserID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listComments(c *gin.Context) {
	taskID, ok := parseID(c, "task")
	if !ok {
		return
	}
	comments, err := h.Comments.ListComments(c.Request.Context(), taskID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createComment(c *gin.Context) {
	taskID, ok := parseID(c, "task")
	if !ok {
		return
	}
	var req domain.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.Comments.AddComment(c.Request.Context(), principal(c).UserID, taskID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) updateComment(c *gin.Context) {
	id, ok := parseID(c, "comment")
	if !ok {
		return
	}
	var req domain.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.Comments.EditComment(c.Request.Context(), principal(c).UserID, id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(*comment))
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := parseID(c, "comment")
	if !ok {
		return
	}
	if err := h.Comments.DeleteComment(c.Request.Context(), principal(c).UserID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
