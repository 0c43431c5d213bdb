// Package lodaapi is a typed HTTP client for the LODA sequence and program API.
//
// Every method issues exactly one outbound request against the configured base
// URL and returns the decoded response body. The package performs no caching
// and no retries; callers decide how upstream failures surface to users.
package lodaapi
