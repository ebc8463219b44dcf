package funnel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/chispart-landing/internal/page"
)

var (
	ErrInvalidEmail    = errors.New("funnel: invalid email")
	ErrInvalidPhone    = errors.New("funnel: invalid phone")
	ErrMissingFields   = errors.New("funnel: required fields missing")
	ErrNoPlan          = errors.New("funnel: no plan selected")
	ErrNoPaymentMethod = errors.New("funnel: no payment method selected")
)

// browserSpace is the whitespace class browsers use for \s: ASCII spaces plus
// every Unicode space separator and the byte order mark. RE2's \s is ASCII only.
const browserSpace = `\t\n\v\f\r\p{Z}\x{FEFF}`

var (
	emailPattern = regexp.MustCompile(`^[^` + browserSpace + `@]+@[^` + browserSpace + `@]+\.[^` + browserSpace + `@]+$`)
	phonePattern = regexp.MustCompile(`^[\d` + browserSpace + `\-\+\(\)]+$`)
)

// FieldIDs lists the registration form controls in form order.
var FieldIDs = []string{"firstName", "lastName", "email", "company", "phone", "country", "industry", "employees", "message"}

// RequiredFields must be non-blank for a registration to pass.
var RequiredFields = []string{"firstName", "lastName", "email", "company", "phone", "country", "industry", "employees"}

// ValidationError is a rejected submission. Message is the text shown to the visitor.
type ValidationError struct {
	Reason  string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(reason, message string, err error) *ValidationError {
	return &ValidationError{Reason: reason, Message: message, Err: err}
}

// Registration is the signup form as read from the page.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Industry  string `json:"industry"`
	Employees string `json:"employees"`
	Message   string `json:"message"`
}

// ReadRegistration collects the form values. Missing controls read as empty.
func ReadRegistration(d *page.Document) Registration {
	value := func(id string) string {
		if el := d.ByID(id); el != nil {
			return el.Value
		}
		return ""
	}
	return Registration{
		FirstName: value("firstName"),
		LastName:  value("lastName"),
		Email:     value("email"),
		Company:   value("company"),
		Phone:     value("phone"),
		Country:   value("country"),
		Industry:  value("industry"),
		Employees: value("employees"),
		Message:   value("message"),
	}
}

// Field returns the value of the control with the given id.
func (r Registration) Field(id string) string {
	switch id {
	case "firstName":
		return r.FirstName
	case "lastName":
		return r.LastName
	case "email":
		return r.Email
	case "company":
		return r.Company
	case "phone":
		return r.Phone
	case "country":
		return r.Country
	case "industry":
		return r.Industry
	case "employees":
		return r.Employees
	case "message":
		return r.Message
	}
	return ""
}

// Validate checks email, then phone, then the required fields, and reports
// only the first problem found.
func (r Registration) Validate() error {
	if !emailPattern.MatchString(r.Email) {
		return invalid("invalid_email", "Por favor ingresa un email válido.", ErrInvalidEmail)
	}
	if !phonePattern.MatchString(r.Phone) {
		return invalid("invalid_phone", "Por favor ingresa un teléfono válido.", ErrInvalidPhone)
	}
	for _, id := range RequiredFields {
		if strings.TrimSpace(r.Field(id)) == "" {
			return invalid("missing_fields", "Por favor completa todos los campos requeridos.", ErrMissingFields)
		}
	}
	return nil
}
