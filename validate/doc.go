// Package validate implements a declarative request-validation pipeline:
// schemas of per-field rule chains that run every field to completion and
// aggregate the first failure of each invalid field into a single 422
// error, while letting rules that fail with an explicit non-422 status
// short-circuit the run.
//
// The package is transport-agnostic: a Request is four plain string maps
// (body, params, headers, query) and rules receive an explicit Checked
// accumulator for derived state instead of mutating shared request scope.
package validate
