package dto

type LoginRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,min=10,max=15"`
	Password     string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginResponse struct {
	Token string        `json:"token"`
	User  AdminUserInfo `json:"user"`
}
