package model

import "testing"

func TestApplicantTransitions(t *testing.T) {
	tests := []struct {
		status      string
		wantApprove bool
		wantDecline bool
	}{
		{StatusNew, true, true},
		{StatusInProgress, false, true},
		{StatusPending, false, true},
		{StatusAccepted, false, false},
		{StatusDeclined, false, false},
		{StatusBlocked, false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			a := &Applicant{Status: tt.status}
			if got := a.CanApprove(); got != tt.wantApprove {
				t.Errorf("CanApprove() = %v, ожидается %v", got, tt.wantApprove)
			}
			if got := a.CanDecline(); got != tt.wantDecline {
				t.Errorf("CanDecline() = %v, ожидается %v", got, tt.wantDecline)
			}
		})
	}
}

func TestIsKnownStatus(t *testing.T) {
	for _, s := range Statuses {
		if !IsKnownStatus(s) {
			t.Errorf("IsKnownStatus(%q) = false", s)
		}
	}
	if IsKnownStatus(StatusBlocked) {
		t.Error("blocked не должен входить в набор фильтров")
	}
}

func TestIdentityDisplayName(t *testing.T) {
	withCompany := &Identity{Email: "a@b.com", CompanyName: "ТОВ Ромашка"}
	if got := withCompany.DisplayName(); got != "ТОВ Ромашка" {
		t.Errorf("DisplayName() = %q, ожидается название компании", got)
	}

	emailOnly := &Identity{Email: "a@b.com"}
	if got := emailOnly.DisplayName(); got != "a@b.com" {
		t.Errorf("DisplayName() = %q, ожидается email", got)
	}
}
