// Package supabase implements the identity provider client against the
// Supabase auth API (GoTrue).
//
// Client satisfies both gate.IdentityClient for the user-facing session
// lifecycle and gate.IdentityAdmin for privileged lookups with the service
// role key.
package supabase
