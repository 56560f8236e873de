package domain

import "time"

type Patient struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Age            int        `json:"age"`
	Phone          *string    `json:"phone,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	MedicalHistory *string    `json:"medical_history,omitempty"`
	PasswordHash   string     `json:"-"` // Никогда не отправляем на фронт
	CreatedAt      time.Time  `json:"created_at"`
}

type Doctor struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	PasswordHash   string `json:"-"`
}

type RegisterRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Email       string  `json:"email" validate:"required,email,max=254"`
	Password    string  `json:"password" validate:"required,min=8,max=72"` // bcrypt режет после 72 байт
	Age         int     `json:"age" validate:"required,gte=1,lte=130"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	DateOfBirth *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *RegisterRequest) Validate() error {
	return validateStruct(r)
}

type ProfileUpdate struct {
	Name           string  `json:"name" validate:"required,max=120"`
	Email          string  `json:"email" validate:"required,email,max=254"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	DateOfBirth    *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MedicalHistory *string `json:"medical_history,omitempty" validate:"omitempty,max=5000"`
}

func (p *ProfileUpdate) Validate() error {
	return validateStruct(p)
}

type PasswordChange struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=8,max=72,nefield=Current"`
}

func (p *PasswordChange) Validate() error {
	return validateStruct(p)
}
