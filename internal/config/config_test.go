package config

import (
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Analysis.TargetCoverage != 80 {
		t.Errorf("TargetCoverage = %v, want 80", cfg.Analysis.TargetCoverage)
	}
	if cfg.Analysis.Days != 30 {
		t.Errorf("Days = %d, want 30", cfg.Analysis.Days)
	}
}

func TestValidate_InvalidTarget(t *testing.T) {
	cfg := Default()
	cfg.Analysis.TargetCoverage = 100.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for target > 100")
	}

	cfg.Analysis.TargetCoverage = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative target")
	}
}

func TestValidate_InvalidDays(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Days = -3
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative days")
	}
}

func TestValidate_InvalidSource(t *testing.T) {
	cfg := Default()
	cfg.Input.Source = "s3"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestValidate_InvalidTerm(t *testing.T) {
	cfg := Default()
	cfg.AWS.TermYears = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for 2-year term")
	}
}

func TestValidate_Formats(t *testing.T) {
	for _, f := range Formats {
		cfg := Default()
		cfg.Output.Format = f
		if err := cfg.Validate(); err != nil {
			t.Errorf("format %q: unexpected error %v", f, err)
		}
	}

	cfg := Default()
	cfg.Output.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid output format")
	}

	cfg = Default()
	cfg.Logging.Format = "logfmt"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid logging format")
	}
}

func TestValidate_FillsServiceType(t *testing.T) {
	cfg := Default()
	cfg.Analysis.ServiceType = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.ServiceType != "RDS" {
		t.Errorf("expected ServiceType to be filled with RDS, got %q", cfg.Analysis.ServiceType)
	}
}

func TestValidate_InvalidPurchaseParams(t *testing.T) {
	cfg := Default()
	cfg.AWS.PaymentOption = "NO_UPFRONT"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown payment option")
	}

	cfg = Default()
	cfg.AWS.LookbackDays = 14
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for 14-day lookback")
	}
}
