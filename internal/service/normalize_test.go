package service

import "testing"

func TestNormalize_CaseAndSeparatorInsensitive(t *testing.T) {
	if Normalize("ab-1234") != Normalize("AB1234") {
		t.Fatalf("expected ab-1234 and AB1234 to normalize equal, got %q and %q",
			Normalize("ab-1234"), Normalize("AB1234"))
	}
	if Normalize("AB_1234") != "AB1234" {
		t.Fatalf("expected AB_1234 to normalize to AB1234, got %q", Normalize("AB_1234"))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"ab-1234", "ｍｎ−450x", "  Widget   Type A ", "", "ZX_9900"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestNormalize_FullWidthAndDashVariants(t *testing.T) {
	// Full-width letters fold through NFKC, the minus sign through the dash
	// replacer, and the dash is then stripped as a separator.
	if got := Normalize("ｍｎ−450x"); got != "MN450X" {
		t.Fatalf("expected MN450X, got %q", got)
	}
	for _, dash := range []string{"–", "—", "−"} {
		if got := Normalize("AB" + dash + "12"); got != "AB12" {
			t.Fatalf("expected AB12 for dash %q, got %q", dash, got)
		}
	}
}

func TestNormalize_WhitespaceCollapse(t *testing.T) {
	if got := Normalize("  Widget \t Type\n A  "); got != "WIDGET TYPE A" {
		t.Fatalf("expected WIDGET TYPE A, got %q", got)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("expected empty output for empty input, got %q", got)
	}
}

func TestFoldText_PreservesSeparators(t *testing.T) {
	if got := foldText("mn−450x"); got != "MN-450X" {
		t.Fatalf("expected MN-450X, got %q", got)
	}
}
