package bridge

import (
	"context"

	authapp "stackit/contexts/identity-access/auth-service/application"
	notificationports "stackit/contexts/community-qa/notification-service/ports"
)

// Directory resolves notification actor names from the auth-service users.
type Directory struct {
	Auth authapp.Service
}

func (d Directory) DisplayName(ctx context.Context, userID string) (string, error) {
	return d.Auth.DisplayName(ctx, userID)
}

var _ notificationports.UserDirectory = Directory{}
