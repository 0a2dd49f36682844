package api

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type StartGuestSessionRequest struct{}

type StartGuestSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User  *User `json:"user"`
	Guest bool  `json:"guest"`
}
