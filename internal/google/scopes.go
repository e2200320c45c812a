package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// OAuthScopes are the Google OAuth scopes the application requests.
// Calendar access is the only Google surface the action handlers touch.
var OAuthScopes = []string{
	calendar.CalendarScope,
}
