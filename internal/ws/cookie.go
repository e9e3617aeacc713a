package ws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
)

// sessionToken reads the session id from the named cookie. Signed cookies
// have the form "s:<sid>.<signature>", the signature being the unpadded
// base64 HMAC-SHA256 of sid under secret. With a secret configured,
// unsigned or badly signed cookies are refused.
func sessionToken(r *http.Request, name, secret string) (string, bool) {
	if name == "" {
		return "", false
	}
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	value, err := url.PathUnescape(c.Value)
	if err != nil || value == "" {
		return "", false
	}

	signed, ok := strings.CutPrefix(value, "s:")
	if !ok {
		if secret != "" {
			return "", false
		}
		return value, true
	}

	dot := strings.LastIndexByte(signed, '.')
	if dot <= 0 {
		return "", false
	}
	sid, sig := signed[:dot], signed[dot+1:]
	if secret == "" {
		return sid, true
	}
	if !hmac.Equal([]byte(sig), []byte(sign(sid, secret))) {
		return "", false
	}
	return sid, true
}

func sign(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}
