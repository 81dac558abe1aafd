// CLAUDE:SUMMARY Sentinel errors for the leads service: invalid input, no channel, closed service.
package leads

import "errors"

// ErrInvalidInput is returned when a request fails validation beyond
// what documented defaults can absorb.
var ErrInvalidInput = errors.New("leads: invalid input")

// ErrNoChannel is returned when every outreach channel is excluded by
// cooldowns or blocks.
var ErrNoChannel = errors.New("leads: no eligible outreach channel")

// ErrClosed is returned when the service is used after Close.
var ErrClosed = errors.New("leads: service closed")
