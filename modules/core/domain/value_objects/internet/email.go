package internet

import (
	"errors"

	"github.com/wildroots/wildroots/pkg/constants"
)

var ErrInvalidEmail = errors.New("invalid email")

type Email struct {
	value string
}

func NewEmail(v string) (Email, error) {
	if err := constants.Validate.Var(v, "required,email"); err != nil {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: v}, nil
}

func MustParseEmail(v string) Email {
	e, err := NewEmail(v)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) Value() string {
	return e.value
}

func (e Email) IsZero() bool {
	return e.value == ""
}
