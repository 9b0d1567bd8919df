package accounts

import "testing"

func TestDeriveSign(t *testing.T) {
	cases := []struct {
		code string
		want Sign
	}{
		{"1001", SignDebit},
		{"1101", SignDebit},
		{"2301", SignCredit},
		{"3001", SignCredit},
		{"4101", SignCredit},
		{"5101", SignDebit},
		{"6201", SignDebit},
		{"7001", SignCredit},
		{"8001", SignDebit},
		{"9001", SignCredit},
		{"", ""},
		{"x123", ""},
	}
	for _, tc := range cases {
		if got := DeriveSign(tc.code); got != tc.want {
			t.Errorf("DeriveSign(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestDeriveReporting(t *testing.T) {
	cases := []struct {
		code string
		want Reporting
	}{
		{"1001", ReportingBalanceSheet},
		{"2301", ReportingBalanceSheet},
		{"3001", ReportingBalanceSheet},
		{"4101", ReportingProfitLoss},
		{"5101", ReportingProfitLoss},
		{"6201", ReportingProfitLoss},
		{"9001", ReportingProfitLoss},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DeriveReporting(tc.code); got != tc.want {
			t.Errorf("DeriveReporting(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestValidateCode(t *testing.T) {
	if err := ValidateCode("1101"); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	for _, bad := range []string{"", "abc", "12a4", "0101"} {
		if err := ValidateCode(bad); err == nil {
			t.Errorf("ValidateCode(%q) accepted, want error", bad)
		}
	}
}

func TestValidateHierarchy(t *testing.T) {
	if err := ValidateHierarchy("1", "11"); err != nil {
		t.Fatalf("valid hierarchy rejected: %v", err)
	}
	if err := ValidateHierarchy("1", "21"); err == nil {
		t.Error("sub-header outside header prefix accepted")
	}
	if err := ValidateHierarchy("11", "11"); err == nil {
		t.Error("sub-header equal to header accepted")
	}
}

func TestAccountDerivedFields(t *testing.T) {
	a := Account{Code: "1101", Type: AccountTypeCash}
	if a.Sign() != SignDebit {
		t.Errorf("cash account sign = %q, want DR", a.Sign())
	}
	if a.Reporting() != ReportingBalanceSheet {
		t.Errorf("cash account reporting = %q, want BS", a.Reporting())
	}
}
