// Package authkit is the client-side authentication and session-lifecycle
// layer for the book-reading app: a Result-based adapter over an external
// identity provider, a closed error taxonomy with anti-enumeration
// sanitization, password strength and lockout policies, an observable
// session store with cache invalidation, and an idle-session monitor.
//
// Every fallible operation returns a [result.Result] instead of panicking;
// the only place a failure converts back into a panic is
// [result.Result.MustGet], at boundaries that explicitly choose to.
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Service], [Store],
// [IdleMonitor], [Builder], [Config], and the error taxonomy. Counting
// primitives, lockout policy, and diagnostics dispatch live under
// internal/ and are never exported directly.
//
// # What this package must NOT do
//
//   - Speak the identity provider's wire protocol. Callers supply a
//     [Provider]; this package only consumes its logical contract.
//   - Surface raw provider or collaborator error text to UI callers. All
//     user-facing strings come from the sanitizer's fixed vocabulary or
//     [UserMessage].
//   - Persist sessions, identity ids, or any other auth truth. Only UI
//     preferences reach the [Storage] collaborator; auth state is
//     re-derived from the provider at process start.
package authkit
