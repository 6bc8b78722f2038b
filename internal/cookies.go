package internal

// Cookie names shared by the server handlers.
const (
	COOKIE_ACCESS_TOKEN_NAME = "lifeshare_access_token"
	COOKIE_REDIRECT_NAME     = "lifeshare_redirect"
)
