package payu

import (
	"crypto/md5" //nolint:gosec // PayU signs notifications with MD5 over body+secondKey
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the header PayU attaches to every notification.
const SignatureHeader = "OpenPayu-Signature"

// ParseSignatureHeader splits a raw OpenPayu-Signature value into its
// key=value tokens. Segments are separated by ';', empty segments are
// skipped and later duplicate keys overwrite earlier ones.
func ParseSignatureHeader(raw string) map[string]string {
	tokens := make(map[string]string)
	for _, segment := range strings.Split(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		tokens[key] = value
	}
	return tokens
}

// SignatureVerifier checks notification signatures against the merchant's
// second key.
type SignatureVerifier struct {
	SecondKey string
}

// Verify reports whether the signature claimed in the header matches the
// digest recomputed over body||secondKey. A header without a signature or
// algorithm token verifies as false; it never errors. The algorithm token is
// required but not dispatched on, PayU signs with MD5 only.
func (v SignatureVerifier) Verify(header string, body []byte) bool {
	tokens := ParseSignatureHeader(header)
	signature := tokens["signature"]
	algorithm := tokens["algorithm"]
	if signature == "" || algorithm == "" {
		return false
	}
	expected := v.computeSignature(body)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func (v SignatureVerifier) computeSignature(body []byte) string {
	sum := md5.New() //nolint:gosec
	sum.Write(body)
	sum.Write([]byte(v.SecondKey))
	return hex.EncodeToString(sum.Sum(nil))
}

// Sign produces the header value for a payload, used by tests and local
// notification simulators.
func (v SignatureVerifier) Sign(body []byte) string {
	return "signature=" + v.computeSignature(body) + ";algorithm=MD5;sender=checkout"
}

// Notification source addresses published by PayU per environment. Membership
// is an exact string match on the literal address.
var (
	productionNotifyIPs = map[string]struct{}{
		"185.68.12.10": {},
		"185.68.12.11": {},
		"185.68.12.12": {},
		"185.68.12.26": {},
		"185.68.12.27": {},
		"185.68.12.28": {},
	}
	sandboxNotifyIPs = map[string]struct{}{
		"185.68.14.10": {},
		"185.68.14.11": {},
		"185.68.14.12": {},
		"185.68.14.26": {},
		"185.68.14.27": {},
		"185.68.14.28": {},
	}
)

// TrustedNotificationSource reports whether the address is a known PayU
// notification source for the environment.
func TrustedNotificationSource(env Environment, addr string) bool {
	var set map[string]struct{}
	switch env {
	case EnvironmentProduction:
		set = productionNotifyIPs
	case EnvironmentSandbox:
		set = sandboxNotifyIPs
	default:
		return false
	}
	_, ok := set[strings.TrimSpace(addr)]
	return ok
}
