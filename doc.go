// Package identity manages the identity lifecycle of participants in a
// multi-role event-management platform: authentication decisions,
// role-gated approval workflows, credential issuance and reset, and safe
// account deletion with cross-subsystem referential cleanup.
//
// Accounts and roles:
//   - Account is the identity root, persisted via Bun. Roles form a closed
//     set (admin, judge, volunteer, school, student); judge and volunteer
//     accounts must clear review (ApprovalStatus) before they may sign in,
//     and a rejected student is blacklisted.
//   - LifecycleGuard owns the role/active mutations and enforces the
//     last-admin invariant: the platform always keeps at least one active
//     administrator. It also orchestrates cascading deletion through the
//     CleanupRegistry so owning subsystems register cleanup handlers
//     instead of the core depending on their concrete types.
//
// Credentials:
//   - CredentialManager issues temporary passwords (plaintext returned
//     exactly once, only the hash is stored), seals pending passwords for
//     one-time redemption, and rotates live passwords. Every successful
//     mutation issues a fresh access/refresh token pair.
//   - Auther is the single login authority: it resolves username or
//     case-insensitive email, verifies the credential (or accepts a
//     federated sentinel for externally verified assertions), applies the
//     approval/blacklist/active gates, and produces a sanitized envelope.
//
// Notifications run best-effort: transport failures are logged and
// swallowed so an email outage never fails an approval or deletion.
package identity
