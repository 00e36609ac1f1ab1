package anthropic

import "strings"

// refusalPatterns are substrings the upstream API uses when it declines
// a request on content-policy grounds. Matching on error text is brittle
// coupling to the vendor's error format, which is exactly why it lives
// here and nowhere else.
var refusalPatterns = []string{
	"content_filter",
	"content filtering policy",
	"content management policy",
	"violates our usage policy",
}

// IsContentFiltered reports whether err is an upstream content-policy
// refusal rather than a transport or availability failure. Refusals are
// terminal: retrying the same input cannot succeed.
func IsContentFiltered(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range refusalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsRefusalResponse reports whether a successful API call nonetheless
// declined to answer (the model stopped with a refusal instead of
// producing a classification).
func IsRefusalResponse(resp *MessageResponse) bool {
	return resp != nil && resp.StopReason == "refusal"
}
