// Package scheduler runs periodic downloads on a cron schedule.
//
// The schedule accepts the standard five cron fields ("0 6 * * *") as well as
// descriptors such as "@daily" or "@every 6h". Runs never overlap: a tick that
// arrives while the previous download is still running is skipped.
package scheduler
