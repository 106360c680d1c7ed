// Package domain contains the task entity and the rules that every store must
// uphold: text normalization and validation, identifier parsing and list query
// normalization. It has no knowledge of persistence or transport.
package domain
