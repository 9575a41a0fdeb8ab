// Package middleware provides HTTP middleware for authentication and request tracing.
package middleware
