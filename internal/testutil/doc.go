// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing dream records and scripted models. They
// are not intended for production usage.
package testutil
