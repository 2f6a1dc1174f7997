// Package validate holds the synchronous form checks run before any upstream call.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heronhoga/bars-fe/model"
)

// MaxAudioSize is the upload cap enforced before the file leaves the server.
const MaxAudioSize = 5 * 1024 * 1024

// AllowedAudioTypes are the accepted upload content types.
var AllowedAudioTypes = []string{"audio/mpeg", "audio/mp3"}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	discordPattern  = regexp.MustCompile(`^[a-zA-Z0-9._]{2,32}$`)
)

// messages maps field.tag to the text shown under the field.
var messages = map[string]string{
	"username.notblank": "Username is required",
	"username.min":      "Username must be at least 3 characters",
	"username.username": "Username can only contain letters, numbers, and underscores",

	"password.required": "Password is required",
	"password.min":      "Password must be at least 8 characters",
	"password.password": "Password must contain at least one uppercase letter, one lowercase letter, and one number",

	"confirmPassword.required": "Please confirm your password",

	"region.required": "Please select your region",
	"region.region":   "Please select your region",

	"discord.discord": "Discord username should be 2-32 characters and contain only letters, numbers, dots, and underscores",

	"title.notblank": "Title is required",
	"title.min":      "Title must be at least 2 characters",
	"title.max":      "Title must be less than 100 characters",

	"description.notblank": "Description is required",
	"description.min":      "Description must be at least 10 characters",
	"description.max":      "Description must be less than 500 characters",

	"genre.required": "Please select a genre",
	"genre.genre":    "Please select a genre",

	"tags.notblank": "At least one tag is required",
	"tags.max":      "Tags must be less than 200 characters",
}

// File errors are produced outside the struct validator.
const (
	msgFileMissing = "Please select an audio file"
	msgFileType    = "Please select a valid audio file (MP3)"
	msgFileSize    = "File size must be less than 5MB"
	msgMismatch    = "Passwords do not match"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// error keys follow the form field names used by the templates
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	must("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	must("password", func(fl validator.FieldLevel) bool {
		return passwordComplex(fl.Field().String())
	})
	must("discord", func(fl validator.FieldLevel) bool {
		return discordPattern.MatchString(fl.Field().String())
	})
	must("region", func(fl validator.FieldLevel) bool {
		return model.Contains(model.Regions, fl.Field().String())
	})
	must("genre", func(fl validator.FieldLevel) bool {
		return model.Contains(model.Genres, fl.Field().String())
	})
	return v
}

// passwordComplex requires an ASCII lowercase letter, uppercase letter and digit.
func passwordComplex(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// FieldErrors maps a form field name to its error message.
type FieldErrors map[string]string

// Valid reports whether no field failed.
func (e FieldErrors) Valid() bool {
	return len(e) == 0
}

// Clear drops the error of a field the user has edited.
func (e FieldErrors) Clear(field string) {
	delete(e, field)
}

// Get returns the message for field, or "".
func (e FieldErrors) Get(field string) string {
	return e[field]
}

// check runs the struct validator and converts failures to messages.
func check(form any) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["general"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + field
		}
		errs[field] = msg
	}
	return errs
}

// Login validates the login form.
func Login(f model.LoginForm) FieldErrors {
	return check(f)
}

// Register validates the registration form.
func Register(f model.RegisterForm) FieldErrors {
	errs := check(f)
	if _, ok := errs["confirmPassword"]; !ok {
		if msg := ConfirmMismatch(f.Password, f.ConfirmPassword); msg != "" {
			errs["confirmPassword"] = msg
		}
	}
	return errs
}

// ConfirmMismatch is the confirm-password rule shared by Register and the live check.
// It returns "" when there is nothing to report.
func ConfirmMismatch(password, confirm string) string {
	if confirm != "" && password != confirm {
		return msgMismatch
	}
	return ""
}

// Upload validates the upload form, file included.
func Upload(f model.UploadForm) FieldErrors {
	errs := check(f)
	switch {
	case f.File == nil:
		errs["file"] = msgFileMissing
	case !model.Contains(AllowedAudioTypes, f.File.ContentType):
		errs["file"] = msgFileType
	case f.File.Size > MaxAudioSize:
		errs["file"] = msgFileSize
	}
	return errs
}

// BeatUpdate validates the beat edit form.
func BeatUpdate(f model.BeatUpdate) FieldErrors {
	return check(f)
}

// Profile validates the profile edit form.
func Profile(f model.ProfileForm) FieldErrors {
	return check(f)
}
