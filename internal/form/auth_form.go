package form

import "strings"

type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`

	Errors Errors `form:"-" validate:"-"`
}

func (f *SignupForm) Valid() bool {
	f.Errors = Errors{}
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	collect(f, f.Errors)
	return !f.Errors.Any()
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`

	Errors Errors `form:"-" validate:"-"`
}

func (f *LoginForm) Valid() bool {
	f.Errors = Errors{}
	f.Username = strings.TrimSpace(f.Username)
	collect(f, f.Errors)
	return !f.Errors.Any()
}
