package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/model"
)

// summaryEntry adds the day's effective status to a summary entry.
type summaryEntry struct {
	model.SummaryEntry
	CurrentStatus *model.AttendanceRecord `json:"current_status,omitempty"`
}

func toSummaryDTO(entries []model.SummaryEntry) []summaryEntry {
	out := make([]summaryEntry, 0, len(entries))
	for _, e := range entries {
		dto := summaryEntry{SummaryEntry: e}
		if last, ok := e.Latest(); ok {
			dto.CurrentStatus = &last
		}
		out = append(out, dto)
	}
	return out
}

// MarkAttendance serves POST /attendance/mark.
func (h *Handler) MarkAttendance(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	var in attendance.MarkInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing attendance data."})
		return
	}
	mark, err := h.attendance.Mark(c.Request.Context(), id.TeacherID, in)
	if err != nil {
		h.writeError(c, err, "Failed to mark attendance. Server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Attendance marked successfully!", "attendance": mark})
}

// AttendanceSummary serves GET /attendance/summary?date=.
func (h *Handler) AttendanceSummary(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Date is required for attendance summary."})
		return
	}
	summary, err := h.attendance.DailySummary(c.Request.Context(), id.TeacherID, date)
	if err != nil {
		h.writeError(c, err, "Failed to fetch attendance summary. Server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": toSummaryDTO(summary)})
}

// StudentAttendance serves GET /students/:id/attendance?date=.
func (h *Handler) StudentAttendance(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	marks, err := h.attendance.StudentMarks(c.Request.Context(), id.TeacherID, c.Param("id"), c.Query("date"))
	if err != nil {
		h.writeError(c, err, "Failed to fetch attendance. Server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attendance": marks})
}
