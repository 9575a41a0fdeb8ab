// Package domain contains the core business entities of the task board:
// tasks with their closed priority and status enums, users, and the
// validation error types shared by every layer. It has no dependencies on
// storage or transport.
package domain
