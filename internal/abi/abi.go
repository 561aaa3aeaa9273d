// Package abi holds the naming contract shared by the classifier, the
// validator and the transformer: the reserved "C array" alias identifier,
// the length type paired with array parameters, and the directive prefix.
package abi

import "strings"

const (
	// DefaultAliasIdent names the generic alias standing in for a pointer
	// that must be paired with an explicit length, e.g. `array[int32]`.
	DefaultAliasIdent = "array"
	// DefaultLengthType is the unsigned size type of length parameters.
	DefaultLengthType = "uintptr"
	// DefaultDirectivePrefix is the comment namespace, as in `//plbind:export`.
	DefaultDirectivePrefix = "plbind"
	// LengthSuffix is appended to an array parameter name to form the name
	// of its length parameter.
	LengthSuffix = "_len"
)

// Config carries the contractual names. The zero value is not usable; call
// Default or Normalize.
type Config struct {
	AliasIdent      string
	LengthType      string
	DirectivePrefix string
}

// Default returns the built-in contract.
func Default() Config {
	return Config{
		AliasIdent:      DefaultAliasIdent,
		LengthType:      DefaultLengthType,
		DirectivePrefix: DefaultDirectivePrefix,
	}
}

// Normalize fills empty fields with their defaults.
func (c Config) Normalize() Config {
	if strings.TrimSpace(c.AliasIdent) == "" {
		c.AliasIdent = DefaultAliasIdent
	}
	if strings.TrimSpace(c.LengthType) == "" {
		c.LengthType = DefaultLengthType
	}
	if strings.TrimSpace(c.DirectivePrefix) == "" {
		c.DirectivePrefix = DefaultDirectivePrefix
	}
	return c
}

// LengthName returns the name of the length parameter paired with name.
func LengthName(name string) string {
	return name + LengthSuffix
}

// Fingerprint is a stable string identifying the contract, used as part of
// cache keys.
func (c Config) Fingerprint() string {
	return c.AliasIdent + "|" + c.LengthType + "|" + c.DirectivePrefix
}
