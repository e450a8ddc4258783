package models

// Claims are the authorizer claims API Gateway attaches for an authenticated caller.
type Claims map[string]interface{}

// Identity returns the email claim, falling back to cognito:username.
func (c Claims) Identity() string {
	for _, key := range []string{"email", "cognito:username"} {
		if v, ok := c[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
