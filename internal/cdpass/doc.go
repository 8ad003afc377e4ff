// Package cdpass isolates coordinate derivative markers from integrands and
// puts them back afterwards.
//
// A coordinate derivative may only wrap an integrand from the outside: on
// every root-to-leaf path, markers form a contiguous prefix. StripForm checks
// that rule, peels the marker prefix off every integral, verifies that all
// integrals carried the same chain of markers and returns the bare form with
// that single chain. AttachForm replays the chain onto every integrand of a
// (possibly transformed) form, innermost marker first, reproducing the
// original nesting.
//
//	Wrapped -> StripForm -> bare form + *Chain -> transform -> AttachForm -> Wrapped'
//
// A nil *Chain means "none": the form had no integrals or the caller never
// stripped. An empty, non-nil chain means integrals were stripped and carried
// no markers. AttachForm returns the form untouched in both cases.
//
// Every failure is fatal for the form being processed and is reported as an
// *Error carrying one of CodeInvariantViolation, CodeConsistencyViolation or
// CodeInvalidInputType.
package cdpass
