package issuer

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// credentialSet holds one source's view of the three fields the token
// endpoint needs. A nil field means that source did not supply it.
type credentialSet struct {
	clientID     *string
	clientSecret *string
	grantType    *string
}

// parseBodySource parses exactly one of the form or JSON body
// modalities, based on Content-Type. The other modality is ignored
// even if present.
func parseBodySource(r *http.Request) credentialSet {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "application/json"):
		return parseJSONBody(r)
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		return parseFormBody(r)
	default:
		return credentialSet{}
	}
}

func parseFormBody(r *http.Request) credentialSet {
	if err := r.ParseForm(); err != nil {
		return credentialSet{}
	}
	return credentialSet{
		clientID:     formValue(r, "client_id"),
		clientSecret: formValue(r, "client_secret"),
		grantType:    formValue(r, "grant_type"),
	}
}

func formValue(r *http.Request, key string) *string {
	if !r.PostForm.Has(key) {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}

func parseJSONBody(r *http.Request) credentialSet {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		return credentialSet{}
	}
	var raw struct {
		ClientID     *string `json:"client_id"`
		ClientSecret *string `json:"client_secret"`
		GrantType    *string `json:"grant_type"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return credentialSet{}
	}
	return credentialSet{clientID: raw.ClientID, clientSecret: raw.ClientSecret, grantType: raw.GrantType}
}

// parseBasicHeaderSource decodes an "Authorization: Basic <b64>" header
// into a client_id/client_secret credential set. grant_type is never
// carried by Basic auth, so that field stays nil. Returns a zero-value
// set if the header is absent or malformed.
func parseBasicHeaderSource(r *http.Request) credentialSet {
	id, secret, ok := r.BasicAuth()
	if !ok {
		return credentialSet{}
	}
	return credentialSet{clientID: &id, clientSecret: &secret}
}

// firstNonNil returns the first non-nil field from sources, in order.
func firstNonNil(sources ...*string) (string, bool) {
	for _, s := range sources {
		if s != nil {
			return *s, true
		}
	}
	return "", false
}

// Credentials is the coalesced result of parsing all three wire
// locations.
type Credentials struct {
	ClientID     string
	ClientSecret string
	GrantType    string
}

// ParseCredentials parses the body (form or JSON, by Content-Type),
// parses the Basic header if present, then coalesces each of the three
// fields with "first non-null wins" in the order body, header. Returns
// ok=false if any of the three fields is missing from every source.
func ParseCredentials(r *http.Request) (Credentials, bool) {
	body := parseBodySource(r)
	header := parseBasicHeaderSource(r)

	clientID, ok1 := firstNonNil(body.clientID, header.clientID)
	clientSecret, ok2 := firstNonNil(body.clientSecret, header.clientSecret)
	grantType, ok3 := firstNonNil(body.grantType, header.grantType)

	if !ok1 || !ok2 || !ok3 {
		return Credentials{}, false
	}

	return Credentials{ClientID: clientID, ClientSecret: clientSecret, GrantType: grantType}, true
}
