// Package submission validates an upload form locally and starts an
// enrichment job on the backend.
package submission

import (
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Deji-py/insta-enricher/internal/domain"
)

// MaxFileSize is the largest CSV accepted for upload (10 MiB).
const MaxFileSize = 10 * 1024 * 1024

// MsgFileTooLarge is shown for files over MaxFileSize.
const MsgFileTooLarge = "File size exceeds 10MB limit"

// Form is the user's submission before it reaches the backend.
type Form struct {
	FileName string
	FileSize int64
	File     io.Reader

	Name  string `validate:"required"`
	Email string `validate:"required,contains=@"`
	Nodes int    `validate:"oneof=1 2 3 4 5 6 8 10"`
}

var validate = validator.New()

// fieldMessages maps a struct field to its user-facing message. Any failing
// tag on the field yields the same text.
var fieldMessages = map[string]struct {
	field   string
	message string
}{
	"Name":  {"name", "Please enter a job name"},
	"Email": {"email", "Please enter a valid email address"},
	"Nodes": {"nodes", "Please select a valid number of nodes (" + domain.NodeCountChoices() + ")"},
}

// Normalize trims text fields and applies the default node count.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if f.Nodes == 0 {
		f.Nodes = domain.DefaultNodeCount
	}
}

// Validate checks the form in display order and returns the first failure
// as a *domain.ValidationError. It never touches the network.
func Validate(f Form) error {
	if err := validateFile(f); err != nil {
		return err
	}
	f.Normalize()

	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, name := range []string{"Name", "Email", "Nodes"} {
		for _, fe := range verrs {
			if fe.StructField() == name {
				m := fieldMessages[name]
				return domain.ErrValidation(m.field, "%s", m.message)
			}
		}
	}
	return domain.ErrValidation(verrs[0].Field(), "%s is invalid", verrs[0].Field())
}

func validateFile(f Form) error {
	if f.File == nil || f.FileName == "" {
		return domain.ErrValidation("file", "Please select a CSV file")
	}
	if !strings.HasSuffix(strings.ToLower(f.FileName), ".csv") {
		return domain.ErrValidation("file", "Please upload a CSV file")
	}
	if f.FileSize > MaxFileSize {
		return domain.ErrValidation("file", MsgFileTooLarge)
	}
	return nil
}
