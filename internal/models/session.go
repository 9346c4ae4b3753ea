package models

// Session is the signed-in employee. Password is kept only in memory and
// replayed as Basic-Auth on every authenticated request.
type Session struct {
	UserID   string `json:"user_id"`
	Password string `json:"-"`
	Name     string `json:"name"`
}

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	UserID   string `json:"userid"`
	Password string `json:"password"`
}
