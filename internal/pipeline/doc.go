// Package pipeline runs report generation as an ordered list of steps.
//
// A Run travels through the steps: fetch, generate, render, convert,
// audit, archive, email and telegram. Every step records a StepResult.
// Steps whose inputs are missing are skipped, and report generation runs
// with WithContinueOnError(true) so that a failure in one step does not
// stop independent steps after it. BatchProcessor runs several datasets
// concurrently, each with its own pipeline and run.
package pipeline
