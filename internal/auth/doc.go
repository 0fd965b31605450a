// Package auth verifies the bearer tokens that front the ROI core API.
//
// Tokens are HS256 JWTs issued by the surrounding identity service. Each
// carries a subject, the tenant whose devices the caller may touch, and one
// of three roles (viewer → operator → admin). Roles map to permissions
// through a static table; there is no database lookup on the request path.
package auth
