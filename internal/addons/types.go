package addons

import "github.com/tidwall/gjson"

// APIError is one entry of the "errors" field a marketplace response may carry.
type APIError struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// AuthResult is the parsed outcome of a check_customer call. A non-empty
// Errors slice means authentication failed regardless of content.
type AuthResult struct {
	IsContributor bool
	Errors        []APIError
}

// OK reports whether the marketplace accepted the credentials.
func (r *AuthResult) OK() bool {
	return r != nil && len(r.Errors) == 0
}

// ModuleInfo describes one marketplace module entry.
type ModuleInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

func parseErrors(body []byte) []APIError {
	var out []APIError
	gjson.GetBytes(body, "errors").ForEach(func(_, item gjson.Result) bool {
		out = append(out, APIError{
			Code:  int(item.Get("code").Int()),
			Label: item.Get("label").String(),
		})
		return true
	})
	return out
}
