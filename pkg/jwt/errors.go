package jwt

import "errors"

var (
	ErrInvalidToken            = errors.New("jwt: invalid token")
	ErrExpiredToken            = errors.New("jwt: token is expired")
	ErrMissingToken            = errors.New("jwt: missing token")
	ErrMissingSigningKey       = errors.New("jwt: missing signing key")
	ErrMissingSubject          = errors.New("jwt: missing subject")
	ErrInvalidSignature        = errors.New("jwt: invalid signature")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
)
