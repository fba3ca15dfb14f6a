package schema

// GuestUser is the authenticated profile returned by the identity provider
// after a successful code exchange.
type GuestUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// TokenSet is the credential pair issued by the provider's token endpoint.
// AccessToken lives about an hour; RefreshToken is optional and long-lived.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// UploadResult describes a stored object after the relay has confirmed it is
// publicly readable. All URLs are derived from the object ID.
type UploadResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	WebViewLink   string `json:"webViewLink"`
	ThumbnailLink string `json:"thumbnailLink"`
}
