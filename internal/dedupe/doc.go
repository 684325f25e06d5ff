// Package dedupe provides a time-based seen-cache used to avoid processing
// the same change-feed entry twice when wake-ups overlap.
package dedupe
