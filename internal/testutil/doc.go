// Package testutil contains helper builders used across tests to reduce
// boilerplate when scripting reasoning engine responses and seeding stores
// with school records. They are not intended for production usage.
package testutil
