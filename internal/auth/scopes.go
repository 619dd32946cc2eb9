package auth

// Known OAuth scopes used by the healix backend.
const (
	ScopeHealthWrite = "health:write"
	ScopeHealthRead  = "health:read"
)
