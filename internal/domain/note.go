package domain

import "time"

type DoctorNote struct {
	ID         int64     `json:"id"`
	PatientID  int64     `json:"patient_id"`
	DoctorID   int64     `json:"doctor_id"`
	DoctorName string    `json:"doctor_name,omitempty"`
	Content    string    `json:"note_content"`
	CreatedAt  time.Time `json:"created_at"`
}

type NoteInput struct {
	Content string `json:"note_content" validate:"required,max=5000"`
}

func (n *NoteInput) Validate() error {
	return validateStruct(n)
}

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifyDanger  NotificationType = "danger"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	UserType  Role             `json:"user_type"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
