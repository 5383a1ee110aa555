// Package runner drives complete conversation turns against an agent
// tree.
//
// A turn takes the user's text and attachments, assembles a single
// multimodal request, executes the agent tree on a working copy of the
// session, and commits slots and history only if execution succeeds.
// Turns on the same session are serialized through the session manager,
// so a failed or slow turn can never corrupt the state a later turn
// reads.
package runner
