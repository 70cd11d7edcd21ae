package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/user"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		User    user.User `json:"user"`
		Access  string    `json:"access"`
		Refresh string    `json:"refresh"`
	}

	RefreshRequest struct {
		Refresh string `json:"refresh" validate:"required"`
	}

	TokenPairResponse struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Username = core.CleanLower(r.Username)
	return validate.Struct(r)
}

func (r *RefreshRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r *PasswordResetRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanLower(r.Email)
	return validate.Struct(r)
}
