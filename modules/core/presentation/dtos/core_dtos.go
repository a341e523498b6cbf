package dtos

import (
	"github.com/wildroots/wildroots/pkg/constants"
)

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

func (d *CreateUserRequest) Validate() error {
	return constants.Validate.Struct(d)
}

type CreateSchoolRequest struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
	Stage   int    `json:"stage" validate:"required,min=1,max=3"`
}

func (d *CreateSchoolRequest) Validate() error {
	return constants.Validate.Struct(d)
}
