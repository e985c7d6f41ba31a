// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package social

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Credentials is the OAuth 1.0a user-context credential set for the X API.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Valid reports whether every part of the credential set is present.
func (c Credentials) Valid() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Signer produces OAuth 1.0a HMAC-SHA1 Authorization headers. Nonce and
// Now are injectable so tests can assert deterministic signatures; the
// zero-value hooks fall back to crypto/rand and time.Now.
type Signer struct {
	Creds Credentials
	Nonce func() string
	Now   func() time.Time
}

// Authorization signs method+rawURL with the given extra parameters (query
// parameters for GET requests must be included here so they enter the
// signature base string) and returns the OAuth header value.
func (s *Signer) Authorization(method, rawURL string, extra map[string]string) string {
	nonce := makeNonce
	if s.Nonce != nil {
		nonce = s.Nonce
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.Creds.ConsumerKey,
		"oauth_nonce":            nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(now().Unix(), 10),
		"oauth_token":            s.Creds.AccessToken,
		"oauth_version":          "1.0",
	}

	signatureParams := make(map[string]string, len(oauthParams)+len(extra))
	for k, v := range oauthParams {
		signatureParams[k] = v
	}
	for k, v := range extra {
		signatureParams[k] = v
	}

	keys := make([]string, 0, len(signatureParams))
	for k := range signatureParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(signatureParams[k]))
	}
	parameterString := strings.Join(pairs, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(parameterString)
	signingKey := percentEncode(s.Creds.ConsumerSecret) + "&" + percentEncode(s.Creds.AccessTokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	oauthParams["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return buildOAuthHeader(oauthParams)
}

// buildOAuthHeader renders the parameter set as `OAuth k="v", ...` with keys
// sorted and both keys and values percent-encoded.
func buildOAuthHeader(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", percentEncode(k), percentEncode(params[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// percentEncode applies OAuth's stricter percent-encoding: only unreserved
// characters survive, everything else (including !'()* which
// url.QueryEscape would keep) becomes %XX with uppercase hex.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// makeNonce returns a random lowercase alphanumeric nonce.
func makeNonce() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// a timestamp nonce still satisfies uniqueness per request.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
