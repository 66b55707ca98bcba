// Package clock abstracts time for the scheduler and the room workflow.
//
// Production code receives Real(); tests receive Fake() and move time forward
// explicitly with Advance, so poll ticks, deferred monitoring starts and
// occupancy polls can be simulated without real waits.
package clock
