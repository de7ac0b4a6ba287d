// Package review holds findings the filter could not resolve on its own.
//
// Items are kept sorted by descending priority, with ties in insertion
// order. Priority rewards severity, low confidence and failed rule checks:
//
//	priority = 50 + severity bonus + confidence shortfall + rule failures
//
// where the severity bonus runs from 40 (critical) to 5 (info), the
// shortfall is +20 below 0.5 and +10 below 0.7, and three or more failed
// rule checks add 15. Items are never removed; retention belongs to the
// caller.
package review
