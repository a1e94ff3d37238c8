// Package credentials defines the contracts the API client uses to read and
// persist session state: the token pair and the active tenant.
//
// The durable, encrypted-at-rest store lives in the host application
// (keychain, encrypted preferences, OS credential manager); this package only
// specifies what the client needs from it. Memory is a complete in-process
// implementation intended for tests and short-lived tooling.
//
// Store implementations must be sequentially consistent: an AccessToken call
// issued after SaveTokens returns must observe the saved value. Memory
// guarantees this with a mutex.
package credentials
