package models

// RequestToken is the short-lived credential issued by the first handshake leg.
type RequestToken struct {
	Token       string
	TokenSecret string
}

// AccessToken authorizes provider API queries on the user's behalf.
type AccessToken struct {
	Token       string `json:"token"`
	TokenSecret string `json:"token_secret"`
}

// Valid reports whether both halves of the pair are present.
func (t *AccessToken) Valid() bool {
	return t != nil && t.Token != "" && t.TokenSecret != ""
}

// Credentials is what the session store holds for one session.
type Credentials struct {
	RequestTokenSecret string
	AccessToken        *AccessToken
}
