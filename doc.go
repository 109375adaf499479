// Package gate gates access to a protected application behind an
// email-verified account.
//
// Session lifecycle:
//   - Store owns the current Session (provider user, application profile,
//     verification flag, loading latch). It is the single writer: the initial
//     session resolve and the provider's auth-change events both funnel
//     through one reducer, and profile fetches are tagged with the user id
//     they were issued for so a superseded fetch can never repopulate state
//     for a different user.
//   - Evaluate converts a Session snapshot plus an optional allowed-role set
//     into a routing Decision (loading, login redirect, verification
//     required, unauthorized redirect, or allow). It is pure and is meant to
//     be re-run on every store notification.
//
// Registration:
//   - Flow drives sign-up as a small step machine (form, awaiting
//     confirmation). Validation happens before any network call, the
//     identity provider owns the unconfirmed account, and confirmation
//     emails can be re-sent idempotently while awaiting verification.
//
// Confirmation dispatch:
//   - SendConfirmationHandler is the server-side half: it resolves the
//     pending identity through the provider's admin API, renders the
//     verification email, and forwards it to a Mailer collaborator.
//     ConfirmationController exposes it over HTTP with permissive CORS for
//     browser clients.
//
// The identity provider itself (credentials, token issuance, verification
// links) is an external collaborator reached through the IdentityClient
// interface; see the provider/supabase subpackage for the HTTP
// implementation.
package gate
