// Package lifecycle moves allocations through scheduled, in-progress and
// completed as time passes, and keeps dock occupancy in step with them.
package lifecycle
