package model

import "time"

// Teacher is an account holder who owns a roster of students.
type Teacher struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	IsVerified        bool      `db:"is_verified" json:"is_verified"`
	VerificationToken *string   `db:"verification_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Student is a roster entry owned by exactly one teacher.
type Student struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Status is the outcome recorded by an attendance mark.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the two storable statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceMark is the status of one student at one date and time of day.
type AttendanceMark struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      string    `json:"attendance_date"` // YYYY-MM-DD
	Time      string    `json:"attendance_time"` // HH:MM
	Status    Status    `json:"status"`
	MarkedAt  time.Time `json:"marked_at"`
}

// AttendanceRecord is one mark as shown in a daily summary.
type AttendanceRecord struct {
	Status Status `json:"status"`
	Time   string `json:"attendance_time"`
}

// SummaryEntry groups a student's marks for a single date.
// An empty AttendanceRecords slice means the student is not marked yet.
type SummaryEntry struct {
	StudentID         string             `json:"student_id"`
	StudentName       string             `json:"student_name"`
	AttendanceRecords []AttendanceRecord `json:"attendance_records"`
}

// Latest returns the last record in time order, which is the status that
// counts for the day. ok is false when the student has no marks.
func (e SummaryEntry) Latest() (rec AttendanceRecord, ok bool) {
	if len(e.AttendanceRecords) == 0 {
		return AttendanceRecord{}, false
	}
	return e.AttendanceRecords[len(e.AttendanceRecords)-1], true
}
