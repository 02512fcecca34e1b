package model

import "strings"

const TokenTypeBearer = "bearer"

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (dto *LoginDTO) Validate() map[string]string {
	err := make(map[string]string)
	if strings.TrimSpace(dto.Username) == "" {
		err["username"] = ErrEmptyField
	}
	if dto.Password == "" {
		err["password"] = ErrEmptyField
	}

	return err
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CurrentUserResponse struct {
	User ClaimSet `json:"User"`
}
