// Package monitor drives the poll-dedup-deliver cycle. It is the only
// writer of the state store: new videos get a pending record before the
// webhook call, then a sent or failed record with the attempt count after.
package monitor
