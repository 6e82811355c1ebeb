package versioning

import (
	"net/http"
	"strings"

	"github.com/searchgate/searchgate/internal/mediatype"
)

// ContentType renders the Content-Type of a response body in mt for a
// request that resolved to v. Vendor types echo the version back.
func ContentType(mt mediatype.MediaType, v Version) string {
	if !mt.IsVendor() {
		return mt.Key()
	}
	return mt.Key() + ";" + compatibleWithParam + "=" + v.String()
}

// AddVary appends token to the Vary header unless it is already listed.
func AddVary(h http.Header, tokens ...string) {
	for _, token := range tokens {
		addVary(h, token)
	}
}

func addVary(h http.Header, token string) {
	if token == "" {
		return
	}
	for _, v := range h.Values(HeaderVary) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return
			}
		}
	}
	h.Add(HeaderVary, token)
}
