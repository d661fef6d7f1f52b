package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classroll/internal/auth"
	"classroll/internal/model"
)

type addStudentRequest struct {
	Name string `json:"name" form:"name"`
}

// ListStudents serves GET /students.
func (h *Handler) ListStudents(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	students, err := h.roster.List(c.Request.Context(), id.TeacherID)
	if err != nil {
		h.writeError(c, err, "Failed to load students. Server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "students": students})
}

// AddStudent serves POST /students and POST /students/add.
func (h *Handler) AddStudent(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	var req addStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, model.Invalid("body"), "")
		return
	}
	st, err := h.roster.Add(c.Request.Context(), id.TeacherID, req.Name)
	if err != nil {
		h.writeError(c, err, "Failed to add student. Server error.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "student": st})
}

// GetStudent serves GET /students/:id.
func (h *Handler) GetStudent(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	st, err := h.roster.Get(c.Request.Context(), id.TeacherID, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to load student. Server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "student": st})
}

// RemoveStudent serves DELETE /students/:id.
func (h *Handler) RemoveStudent(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	if err := h.roster.Remove(c.Request.Context(), id.TeacherID, c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete student. Server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Student removed."})
}
