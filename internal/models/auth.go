package models

// LoginRequest is the body for password authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body for rotating a session token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by both login and refresh. ExpiresIn is the
// access token lifetime in seconds; the client converts it to an absolute
// deadline at save time.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LatestRelease is the updates-check response.
type LatestRelease struct {
	Version string `json:"version"`
}
