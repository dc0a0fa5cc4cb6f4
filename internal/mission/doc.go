// Package mission gates alarm dismissal behind a challenge-response step.
// Challenges come from a best-effort remote question bank with a static
// local fallback.
package mission
