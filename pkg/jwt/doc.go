// Package jwt issues and verifies HS256 tokens that carry a user identity.
//
// A token's claims hold the user ID in "sub" and the user's role in "role",
// together with issue and expiry times. Service.Verify checks the signature
// with a constant-time comparison, rejects any algorithm other than HS256 and
// enforces expiry before returning the Identity.
//
// Middleware resolves the identity for HTTP requests and stores it in the
// request context; handlers read it back with FromContext. Tokens are taken
// from the Authorization header, falling back to the "token" query parameter
// because browser EventSource connections cannot set headers.
//
//	svc, _ := jwt.NewFromString(cfg.JWTSigningKey)
//	r.Use(jwt.Middleware(svc))
//	r.With(jwt.RequireRole("driver", "admin")).Post("/ride-updates", h)
package jwt
