//go:build !stockroomdebug

package stockroom

const debugAssertions = false
