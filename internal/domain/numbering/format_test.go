package numbering

import "testing"

func TestFormatNumber(t *testing.T) {
	cfg := DefaultConfig("AQNS")

	tests := []struct {
		name string
		num  int64
		want string
	}{
		{"first", 1, "AQNS/001"},
		{"padded", 42, "AQNS/042"},
		{"last padded", 999, "AQNS/999"},
		{"grows past pad width", 1000, "AQNS/1000"},
		{"four digits", 1999, "AQNS/1999"},
		{"large", 123456, "AQNS/123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNumber(cfg, tt.num)
			if got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.num, got, tt.want)
			}
		})
	}
}

func TestFormatNumber_ZeroPadWidthDefaults(t *testing.T) {
	cfg := Config{Prefix: "INV"}

	if got := FormatNumber(cfg, 7); got != "INV/007" {
		t.Errorf("expected INV/007, got %s", got)
	}
}

func TestFormatNumber_CustomPadWidth(t *testing.T) {
	cfg := Config{Prefix: "PO", PadWidth: 5}

	if got := FormatNumber(cfg, 12); got != "PO/00012" {
		t.Errorf("expected PO/00012, got %s", got)
	}
}

func TestKeyLockName(t *testing.T) {
	// Fiscal year must not influence the lock name: allocations for one
	// (region, voucher type) pair serialize on a single lock.
	a := Key{Region: "nepal", VoucherType: "sales", FiscalYear: "2082"}
	b := Key{Region: "nepal", VoucherType: "sales", FiscalYear: "2083"}

	if a.LockName() != b.LockName() {
		t.Errorf("lock names differ across fiscal years: %s vs %s", a.LockName(), b.LockName())
	}
	if a.LockName() != "voucher_alloc:nepal:sales" {
		t.Errorf("unexpected lock name %s", a.LockName())
	}
}
