package http

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MeResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
