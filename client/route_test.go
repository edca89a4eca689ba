package client

import (
	"testing"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

func TestResolveRouting(t *testing.T) {
	cases := []struct {
		name       string
		auth       bool
		role       string
		view       string
		wantAction RouteAction
		wantView   string
	}{
		{"anonymous to login", false, "", ViewLogin, ActionRender, ViewLogin},
		{"anonymous to dashboard", false, "", ViewDashboard, ActionRedirectLogin, ViewLogin},
		{"anonymous to admin console", false, "", ViewAdminConsole, ActionRedirectLogin, ViewLogin},
		{"customer home", true, models.RoleCustomer, ViewDashboard, ActionRender, ViewDashboard},
		{"customer ticket detail", true, models.RoleCustomer, ViewTicketDetail, ActionRender, ViewTicketDetail},
		{"customer blocked from tech dashboard", true, models.RoleCustomer, ViewTechDashboard, ActionRedirectHome, ViewDashboard},
		{"customer blocked from admin console", true, models.RoleCustomer, ViewAdminConsole, ActionRedirectHome, ViewDashboard},
		{"tech home", true, models.RoleTech, ViewTechDashboard, ActionRender, ViewTechDashboard},
		{"tech blocked from admin console", true, models.RoleTech, ViewAdminConsole, ActionRedirectHome, ViewTechDashboard},
		{"admin console", true, models.RoleAdmin, ViewAdminConsole, ActionRender, ViewAdminConsole},
		{"admin on tech dashboard", true, models.RoleAdmin, ViewTechDashboard, ActionRender, ViewTechDashboard},
		{"authenticated back to login", true, models.RoleTech, ViewLogin, ActionRedirectHome, ViewTechDashboard},
		{"unknown view reroutes home", true, models.RoleCustomer, "billing", ActionRedirectHome, ViewDashboard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.auth, tc.role, tc.view)
			if got.Action != tc.wantAction || got.View != tc.wantView {
				t.Fatalf("Resolve(%v, %q, %q) = {%v %q}, want {%v %q}",
					tc.auth, tc.role, tc.view, got.Action, got.View, tc.wantAction, tc.wantView)
			}
		})
	}
}

func TestHomeViewUnknownRole(t *testing.T) {
	if got := HomeView("SUPERVISOR"); got != ViewDashboard {
		t.Fatalf("HomeView(SUPERVISOR) = %q, want %q", got, ViewDashboard)
	}
}
