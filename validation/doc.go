// Package validation validates inputs before they reach a transport.
//
// Struct tag validation (go-playground/validator) is used for request-like
// values; the programmatic Validator collects errors for configuration.
// Both report failures as an INVALID_INPUT AppError listing every field.
//
//	type request struct {
//	    URL    string `json:"url" validate:"required,url"`
//	    Method string `json:"method" validate:"omitempty,oneof=GET POST"`
//	}
//	err := validation.Validate(req)
//
//	v := validation.New()
//	v.Min("timeout", timeoutMs, 0)
//	err := v.Validate()
package validation
