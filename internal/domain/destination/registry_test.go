package destination

import "testing"

func valid(name string) Config {
	return Config{
		Name:        name,
		URL:         "https://cloud.example.com/" + name,
		SuccessCode: "200",
	}
}

func TestNewRegistry(t *testing.T) {
	numbered := valid(NepalSales)
	numbered.Numbered = true
	numbered.NumberPrefix = "AQNS"
	numbered.SuccessCode = "101"

	reg, err := NewRegistry(valid(IndiaSales), valid(IndiaReturn), numbered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := reg.Get(NepalSales)
	if !ok {
		t.Fatal("nepal_sales missing")
	}
	if !got.Numbered || got.NumberPrefix != "AQNS" {
		t.Errorf("config = %+v", got)
	}

	if _, ok := reg.Get("unknown"); ok {
		t.Error("unknown destination resolved")
	}

	names := reg.Names()
	want := []string{IndiaReturn, IndiaSales, NepalSales}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	if _, err := NewRegistry(valid(IndiaSales), valid(IndiaSales)); err == nil {
		t.Fatal("duplicate name accepted")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid passthrough", valid(IndiaSales), false},
		{"missing url", Config{Name: "x", SuccessCode: "200"}, true},
		{"missing success code", Config{Name: "x", URL: "https://e"}, true},
		{"numbered without prefix", Config{Name: "x", URL: "https://e", SuccessCode: "101", Numbered: true}, true},
		{
			"numbered with prefix",
			Config{Name: "x", URL: "https://e", SuccessCode: "101", Numbered: true, NumberPrefix: "AQNS"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
