package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxProjectNameLength        = 100
	MaxProjectDescriptionLength = 500
	MaxTaskTitleLength          = 200
	MaxTaskDescriptionLength    = 2000
	MaxCommentLength            = 2000
	MaxUserNameLength           = 100
	MinPasswordLength           = 8
)

var validate = validator.New()

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the failure half of every Validate* function. It is nil when the input
// is acceptable.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *FieldErrors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// ValidEmail reports whether s is a non-empty, syntactically valid email address.
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateProjectInput is the payload accepted when creating a project.
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ValidateCreateProject trims the input and checks it against the project limits.
func ValidateCreateProject(in CreateProjectInput) (CreateProjectInput, FieldErrors) {
	var errs FieldErrors
	out := CreateProjectInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	checkProjectName(&errs, out.Name)
	checkProjectDescription(&errs, out.Description)
	if len(errs) > 0 {
		return CreateProjectInput{}, errs
	}
	return out, nil
}

// UpdateProjectInput carries a partial project update; nil fields are left untouched.
type UpdateProjectInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func ValidateUpdateProject(in UpdateProjectInput) (UpdateProjectInput, FieldErrors) {
	var errs FieldErrors
	var out UpdateProjectInput
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		checkProjectName(&errs, name)
		out.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		checkProjectDescription(&errs, desc)
		out.Description = &desc
	}
	if len(errs) > 0 {
		return UpdateProjectInput{}, errs
	}
	return out, nil
}

func checkProjectName(errs *FieldErrors, name string) {
	switch {
	case name == "":
		errs.add("name", "Project name is required")
	case utf8.RuneCountInString(name) > MaxProjectNameLength:
		errs.add("name", fmt.Sprintf("Project name must be at most %d characters", MaxProjectNameLength))
	}
}

func checkProjectDescription(errs *FieldErrors, desc string) {
	if utf8.RuneCountInString(desc) > MaxProjectDescriptionLength {
		errs.add("description", fmt.Sprintf("Project description must be at most %d characters", MaxProjectDescriptionLength))
	}
}

// CreateTaskInput is the payload accepted when creating a task.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func ValidateCreateTask(in CreateTaskInput) (CreateTaskInput, FieldErrors) {
	var errs FieldErrors
	out := CreateTaskInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	switch {
	case out.Title == "":
		errs.add("title", "Task title is required")
	case utf8.RuneCountInString(out.Title) > MaxTaskTitleLength:
		errs.add("title", fmt.Sprintf("Task title must be at most %d characters", MaxTaskTitleLength))
	}
	if utf8.RuneCountInString(out.Description) > MaxTaskDescriptionLength {
		errs.add("description", fmt.Sprintf("Task description must be at most %d characters", MaxTaskDescriptionLength))
	}
	if len(errs) > 0 {
		return CreateTaskInput{}, errs
	}
	return out, nil
}

// CommentInput is the payload for creating or editing a task comment.
type CommentInput struct {
	Comment string `json:"comment"`
}

func ValidateComment(in CommentInput) (CommentInput, FieldErrors) {
	var errs FieldErrors
	out := CommentInput{Comment: strings.TrimSpace(in.Comment)}
	switch {
	case out.Comment == "":
		errs.add("comment", "Comment is required")
	case utf8.RuneCountInString(out.Comment) > MaxCommentLength:
		errs.add("comment", fmt.Sprintf("Comment must be at most %d characters", MaxCommentLength))
	}
	if len(errs) > 0 {
		return CommentInput{}, errs
	}
	return out, nil
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func ValidateRegister(in RegisterInput) (RegisterInput, FieldErrors) {
	var errs FieldErrors
	out := RegisterInput{
		Email:    NormalizeEmail(in.Email),
		Password: in.Password,
		Name:     strings.TrimSpace(in.Name),
	}
	if !ValidEmail(out.Email) {
		errs.add("email", "A valid email address is required")
	}
	checkPassword(&errs, out.Password)
	checkUserName(&errs, out.Name)
	if len(errs) > 0 {
		return RegisterInput{}, errs
	}
	return out, nil
}

// UpdateProfileInput carries a partial profile update.
type UpdateProfileInput struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func ValidateUpdateProfile(in UpdateProfileInput) (UpdateProfileInput, FieldErrors) {
	var errs FieldErrors
	var out UpdateProfileInput
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		checkUserName(&errs, name)
		out.Name = &name
	}
	if in.Password != nil {
		checkPassword(&errs, *in.Password)
		out.Password = in.Password
	}
	if len(errs) > 0 {
		return UpdateProfileInput{}, errs
	}
	return out, nil
}

func checkPassword(errs *FieldErrors, password string) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs.add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
}

func checkUserName(errs *FieldErrors, name string) {
	switch {
	case name == "":
		errs.add("name", "Name is required")
	case utf8.RuneCountInString(name) > MaxUserNameLength:
		errs.add("name", fmt.Sprintf("Name must be at most %d characters", MaxUserNameLength))
	}
}
