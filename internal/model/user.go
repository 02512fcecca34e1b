package model

// User is the credential store record. Role flags are copied into the token at
// login and are not re-read per request.
type User struct {
	ID         int64  `db:"id" json:"id"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	Username   string `db:"username" json:"username"`
	Email      string `db:"email" json:"email"`
	Password   string `db:"hashed_password" json:"-"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	IsAdmin    bool   `db:"is_admin" json:"is_admin"`
	IsSupplier bool   `db:"is_supplier" json:"is_supplier"`
	IsCustomer bool   `db:"is_customer" json:"is_customer"`
}

type CreateUserDTO struct {
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=6,maxbytes=72"`
}

func (dto *CreateUserDTO) Validate() map[string]string {
	return validateStruct(dto)
}
