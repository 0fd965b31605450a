// Package validation wraps a shared go-playground/validator instance.
//
// Struct tags on schedules and device requests are checked through Struct,
// which returns an *Error listing every failing field by its json name.
package validation
