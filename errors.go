package payu

import (
	"fmt"
	"strings"
)

// AuthError reports a rejected client-credentials exchange. The code and
// description are copied verbatim from the authorization endpoint's error
// body.
type AuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *AuthError) Error() string {
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Sprintf("payu: authorization failed: %s", e.Code)
	}
	return fmt.Sprintf("payu: authorization failed: %s: %s", e.Code, e.Description)
}

// Error reports an order-lifecycle call whose HTTP response fell outside the
// accepted status set. All fields except HTTPStatus come verbatim from the
// response's status object.
type Error struct {
	HTTPStatus  int
	StatusCode  string
	Code        string
	CodeLiteral string
	StatusDesc  string
}

func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("payu: http %d", e.HTTPStatus)}
	if e.StatusCode != "" {
		parts = append(parts, e.StatusCode)
	}
	if e.CodeLiteral != "" {
		parts = append(parts, e.CodeLiteral)
	}
	if e.StatusDesc != "" {
		parts = append(parts, e.StatusDesc)
	}
	return strings.Join(parts, ": ")
}
