/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeToken packs a single assignment into a URL-safe token, for links
// that carry one participant's assignment and nothing else.
func EncodeToken(a Assignment) string {
	data, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeToken unpacks a token made by EncodeToken. Older tokens in the
// standard base64 alphabet are accepted too.
func DecodeToken(token string) (Assignment, error) {
	data, err := decodeBase64(token)
	if err != nil {
		return Assignment{}, err
	}

	var a Assignment
	if err := json.Unmarshal(data, &a); err != nil {
		return Assignment{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	if err := checkAssignment(a); err != nil {
		return Assignment{}, err
	}

	return a, nil
}
