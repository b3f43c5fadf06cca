// Package jobs turns bundle state into ordered work and executes it.
//
// Resolve is a pure function from a bundle's current state and the
// processing settings to the ordered list of jobs that move the bundle
// toward fully processed. Order encodes dependency: a job may rely on an
// earlier job in the same list having run, never on inspecting other job
// instances.
//
// The Runner executes each bundle's list in order and isolates failures at
// the bundle level: the first failing job abandons that bundle's remaining
// jobs and the runner moves on to the next bundle.
package jobs
