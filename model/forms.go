package model

import "io"

// Regions offered by the register and profile forms.
var Regions = []string{"North America", "South America", "Europe", "Asia", "Africa", "Oceania", "Middle East"}

// Genres offered by the upload and edit forms.
var Genres = []string{
	"Hip-Hop", "Trap", "R&B", "Pop", "Electronic", "House", "Techno", "Ambient",
	"Jazz", "Rock", "Reggae", "Drill", "Afrobeat", "Latin", "Other",
}

// LoginForm is the body of a login request.
type LoginForm struct {
	Username string `json:"username" form:"username" validate:"notblank"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RegisterForm carries ConfirmPassword for local checks only.
type RegisterForm struct {
	Username        string `json:"username" form:"username" validate:"notblank,min=3,username"`
	Password        string `json:"password" form:"password" validate:"required,min=8,password"`
	ConfirmPassword string `json:"-" form:"confirmPassword" validate:"required"`
	Region          string `json:"region" form:"region" validate:"required,region"`
	Discord         string `json:"discord" form:"discord" validate:"omitempty,discord"`
}

// UploadFile is an audio file attached to the upload form.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadForm is sent upstream as multipart form data.
type UploadForm struct {
	Title       string      `form:"title" validate:"notblank,min=2,max=100"`
	Description string      `form:"description" validate:"notblank,min=10,max=500"`
	Genre       string      `form:"genre" validate:"required,genre"`
	Tags        string      `form:"tags" validate:"notblank,max=200"`
	File        *UploadFile `form:"file" validate:"-"` // checked by validate.Upload
}

// Contains reports whether v is one of options.
func Contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
