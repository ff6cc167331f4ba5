/*
Package forms turns submitted request fields into validated values.

Every form has a Bind method that copies raw fields out of a parsed request and
a Validate method that returns field-level Errors. A form that validates
cleanly holds values ready to be written by the identity or message store;
writing them is left to the caller.
*/
package forms

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
)

// NonField is the Errors key for errors that belong to the form as a whole.
const NonField = "__all__"

const (
	msgRequired      = "This field is required."
	msgUsernameTaken = "A user with that username already exists."
	msgEmailTaken    = "A user with that email address already exists."
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// Errors maps a field name to its error messages.
type Errors map[string][]string

// Add appends msg to the errors of field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field has any error.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Any reports whether the form has any error at all.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Field returns the messages of field.
func (e Errors) Field(field string) []string {
	return e[field]
}

// NonField returns the messages that belong to no single field.
func (e Errors) NonField() []string {
	return e[NonField]
}

// Checker answers uniqueness questions for the username and email fields.
// except is the user being edited, or uuid.Nil on signup.
type Checker interface {
	UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error)
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
}

// checkStruct runs the validator tags of form and translates the failures.
func checkStruct(form any) Errors {
	errs := Errors{}

	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonField, err.Error())
		return errs
	}

	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return fmt.Sprintf("Invalid value (%s).", fe.Tag())
}

// checkUnique adds the uniqueness errors of the username and email fields.
// Empty values and fields that already failed are skipped.
func checkUnique(ctx context.Context, errs Errors, chk Checker, username, email string, except uuid.UUID) error {
	if username != "" && !errs.Has("username") {
		taken, err := chk.UsernameTaken(ctx, username, except)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("username", msgUsernameTaken)
		}
	}

	if email != "" && !errs.Has("email") {
		taken, err := chk.EmailTaken(ctx, email, except)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("email", msgEmailTaken)
		}
	}

	return nil
}

// FromStoreError turns a uniqueness error raised by the identity store into
// field errors. Any other error is returned unchanged.
func FromStoreError(err error) (Errors, error) {
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, user.ErrUsernameTaken):
		return Errors{"username": {msgUsernameTaken}}, nil
	case errors.Is(err, user.ErrEmailTaken):
		return Errors{"email": {msgEmailTaken}}, nil
	}
	return FromPasswordError(err, "password2")
}

// FromPasswordError reports a password the identity store refused to hash as
// an error on field. Any other error is returned unchanged.
func FromPasswordError(err error, field string) (Errors, error) {
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, user.ErrPasswordTooLong):
		return Errors{field: {msgPasswordTooLong}}, nil
	}
	return nil, err
}

// bindImage validates the optional upload field of r. It returns nil when no
// file was submitted.
func bindImage(r *http.Request, field string, errs Errors) *storage.Image {
	fh := fileHeader(r, field)
	if fh == nil {
		return nil
	}

	img, err := storage.ReadImage(fh)
	if err != nil {
		errs.Add(field, imageMessage(err))
		return nil
	}
	return img
}

func fileHeader(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

func imageMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrEmptyImage):
		return "The submitted file is empty."
	case errors.Is(err, storage.ErrImageTooLarge):
		return fmt.Sprintf("The image must be at most %d MB.", storage.MaxImageSizeMB)
	case errors.Is(err, storage.ErrExtensionMismatch):
		return "The file extension does not match the image type."
	}
	return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
}
