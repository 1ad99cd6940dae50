// Package oauth implements the OAuth 1.0a pieces needed to talk to the
// listings provider: request signing and the three-leg handshake.
package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Signature methods understood by the provider.
const (
	MethodPlaintext = "PLAINTEXT"
	MethodHMACSHA1  = "HMAC-SHA1"
)

// Params are the optional protocol parameters of a single signed request.
type Params struct {
	Callback string
	Token    string
	Verifier string
}

// Signer builds Authorization headers for one consumer identity.
type Signer struct {
	consumerKey    string
	consumerSecret string
	now            func() time.Time
	nonce          func() (string, error)
}

// NewSigner creates a Signer for the given consumer credentials.
func NewSigner(consumerKey, consumerSecret string) *Signer {
	return &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		now:            time.Now,
		nonce:          randomNonce,
	}
}

// PlaintextSignature joins the percent-encoded secrets with a literal '&',
// consumer secret first. The separator is present even when tokenSecret is
// empty.
func PlaintextSignature(consumerSecret, tokenSecret string) string {
	return PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)
}

// HMACSHA1Signature signs the canonical base string of a request.
func HMACSHA1Signature(baseString, consumerSecret, tokenSecret string) string {
	mac := hmac.New(sha1.New, []byte(PlaintextSignature(consumerSecret, tokenSecret)))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// BaseString builds the HMAC-SHA1 signature base string: the upper-cased
// method, the URL without query, and every oauth and query parameter sorted
// by encoded key then value.
func BaseString(method, rawURL string, oauthParams map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	type pair struct{ k, v string }
	var pairs []pair
	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
		}
	}
	for k, v := range oauthParams {
		pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.k + "=" + p.v
	}

	base := &url.URL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   strings.ToLower(u.Host),
		Path:   u.EscapedPath(),
	}
	if base.Path == "" {
		base.Path = "/"
	}

	return strings.ToUpper(method) + "&" +
		PercentEncode(base.String()) + "&" +
		PercentEncode(strings.Join(encoded, "&")), nil
}

// AuthorizationHeader returns the value of the Authorization header for a
// request signed with signatureMethod using tokenSecret.
func (s *Signer) AuthorizationHeader(httpMethod, rawURL, signatureMethod string, p Params, tokenSecret string) (string, error) {
	nonce, err := s.nonce()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	params := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if p.Callback != "" {
		params["oauth_callback"] = p.Callback
	}
	if p.Token != "" {
		params["oauth_token"] = p.Token
	}
	if p.Verifier != "" {
		params["oauth_verifier"] = p.Verifier
	}

	var signature string
	switch signatureMethod {
	case MethodPlaintext:
		// Already percent-encoded; placed into the header verbatim.
		signature = PlaintextSignature(s.consumerSecret, tokenSecret)
	case MethodHMACSHA1:
		base, err := BaseString(httpMethod, rawURL, params)
		if err != nil {
			return "", err
		}
		signature = PercentEncode(HMACSHA1Signature(base, s.consumerSecret, tokenSecret))
	default:
		return "", fmt.Errorf("unsupported signature method %q", signatureMethod)
	}

	keys := make([]string, 0, len(params)+1)
	for k := range params {
		keys = append(keys, k)
	}
	keys = append(keys, "oauth_signature")
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		v := signature
		if k != "oauth_signature" {
			v = PercentEncode(params[k])
		}
		parts[i] = fmt.Sprintf(`%s="%s"`, k, v)
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}

// PercentEncode applies RFC 3986 encoding, leaving only unreserved
// characters as-is.
func PercentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
