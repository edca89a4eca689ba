package client

import "github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"

// Views the client can render.
const (
	ViewLogin         = "login"
	ViewDashboard     = "dashboard"
	ViewTechDashboard = "tech-dashboard"
	ViewAdminConsole  = "admin-console"
	ViewTicketDetail  = "ticket-detail"
	ViewNewTicket     = "new-ticket"
)

// RouteAction is what the shell should do with a requested view.
type RouteAction int

const (
	ActionRender RouteAction = iota
	ActionRedirectLogin
	ActionRedirectHome
)

// Decision is the resolved navigation outcome. View is the view to
// show, which differs from the requested one on redirects.
type Decision struct {
	Action RouteAction
	View   string
}

// viewRoles maps protected views to the roles allowed to see them.
// Absent entries are open to every authenticated user.
var viewRoles = map[string][]string{
	ViewTechDashboard: {models.RoleTech, models.RoleAdmin},
	ViewAdminConsole:  {models.RoleAdmin},
}

// HomeView is the landing view for a role; unknown roles land on the
// customer dashboard.
func HomeView(role string) string {
	switch role {
	case models.RoleTech:
		return ViewTechDashboard
	case models.RoleAdmin:
		return ViewAdminConsole
	default:
		return ViewDashboard
	}
}

// Resolve decides how a navigation request is handled. Role mismatches
// reroute silently to the role's home instead of surfacing an error.
func Resolve(authenticated bool, role, view string) Decision {
	if view == ViewLogin {
		if authenticated {
			return Decision{Action: ActionRedirectHome, View: HomeView(role)}
		}
		return Decision{Action: ActionRender, View: ViewLogin}
	}
	if !authenticated {
		return Decision{Action: ActionRedirectLogin, View: ViewLogin}
	}
	switch view {
	case ViewDashboard, ViewTechDashboard, ViewAdminConsole, ViewTicketDetail, ViewNewTicket:
	default:
		return Decision{Action: ActionRedirectHome, View: HomeView(role)}
	}
	if allowed, ok := viewRoles[view]; ok {
		found := false
		for _, r := range allowed {
			if r == role {
				found = true
				break
			}
		}
		if !found {
			return Decision{Action: ActionRedirectHome, View: HomeView(role)}
		}
	}
	return Decision{Action: ActionRender, View: view}
}
