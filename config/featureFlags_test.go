package config

import "testing"

func TestPriceTolerance(t *testing.T) {
	cases := []struct {
		env      string
		expected string
	}{
		{"", "0.02"},
		{"0.05", "0.05"},
		{"abc", "0.02"},
		{"-1", "0.02"},
	}
	for _, tc := range cases {
		t.Setenv("PRICE_TOLERANCE", tc.env)
		got := PriceTolerance()
		if got.String() != tc.expected {
			t.Fatalf("PriceTolerance(%q) expected %s, got %s", tc.env, tc.expected, got.String())
		}
	}
}

func TestStrictCreditRemainder(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " y "} {
		t.Setenv("STRICT_CREDIT_REMAINDER", v)
		if !StrictCreditRemainder() {
			t.Fatalf("expected %q to enable strict credit remainder", v)
		}
	}
	t.Setenv("STRICT_CREDIT_REMAINDER", "off")
	if StrictCreditRemainder() {
		t.Fatalf("expected strict credit remainder to be off")
	}
}

func TestDatabaseDriver(t *testing.T) {
	cases := map[string]string{
		"":           DriverMySQL,
		"mysql":      DriverMySQL,
		"Postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		"sqlite3":    DriverSQLite,
	}
	for in, expected := range cases {
		t.Setenv("DB_DRIVER", in)
		if got := databaseDriver(); got != expected {
			t.Fatalf("databaseDriver(%q) expected %s, got %s", in, expected, got)
		}
	}
}
