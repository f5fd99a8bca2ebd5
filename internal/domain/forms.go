package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChapterInput is the admin chapter form.
type ChapterInput struct {
	Title   string `json:"title" validate:"required,notblank"`
	Content string `json:"content"`
	Period  string `json:"period"`
	Order   int    `json:"order" validate:"gte=0"`
}

// QuestionInput is the admin question form. ChapterID is only sent on create.
type QuestionInput struct {
	ChapterID string   `json:"chapterId,omitempty"`
	Text      string   `json:"text" validate:"required,notblank"`
	Answers   []Answer `json:"answers" validate:"required,min=1,dive"`
}

// BadgeInput is the admin badge form.
type BadgeInput struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
	Icon        string `json:"icon"`
	Condition   string `json:"condition"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// required accepts whitespace-only strings
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
	})
	return validate
}

// Validate checks a form struct and converts failures to a ValidationError.
func Validate(form any) error {
	err := formValidator().Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return NewValidationError(problems...)
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// PrepareQuestion trims blank answers and checks the question can be saved:
// text present, at least one answer, at least one answer marked correct.
func PrepareQuestion(in QuestionInput, requireChapter bool) (QuestionInput, error) {
	if requireChapter && strings.TrimSpace(in.ChapterID) == "" {
		return in, NewValidationError("select a chapter")
	}
	if strings.TrimSpace(in.Text) == "" {
		return in, NewValidationError("question text is required")
	}
	kept := make([]Answer, 0, len(in.Answers))
	for _, a := range in.Answers {
		if strings.TrimSpace(a.Text) != "" {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return in, NewValidationError("add at least one answer")
	}
	correct := false
	for _, a := range kept {
		if a.IsCorrect {
			correct = true
			break
		}
	}
	if !correct {
		return in, NewValidationError("mark at least one answer as correct")
	}
	in.Answers = kept
	if err := Validate(in); err != nil {
		return in, err
	}
	return in, nil
}
