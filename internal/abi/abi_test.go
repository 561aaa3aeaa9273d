package abi

import "testing"

func TestNormalizeFillsDefaults(t *testing.T) {
	got := Config{LengthType: "C.size_t"}.Normalize()
	if got.AliasIdent != DefaultAliasIdent || got.DirectivePrefix != DefaultDirectivePrefix {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if got.LengthType != "C.size_t" {
		t.Fatalf("explicit length type overwritten: %q", got.LengthType)
	}
}

func TestLengthName(t *testing.T) {
	if LengthName("nums") != "nums_len" {
		t.Fatalf("LengthName = %q", LengthName("nums"))
	}
}

func TestFingerprintChangesWithContract(t *testing.T) {
	a := Default()
	b := Default()
	b.LengthType = "uint64"
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("fingerprints must differ when the length type differs")
	}
}
