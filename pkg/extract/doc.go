// Package extract turns backend output text into context updates.
//
// Rules never fail: an unmatched pattern leaves the context unchanged.
package extract
