// Package validation turns arbitrary decoded task payloads into normalized
// domain mutations. It enforces shape rules only and never touches storage.
package validation
