package email

import (
	"context"
)

// Service sends transactional (non-campaign) mail, e.g. the welcome
// message at signup. Campaign traffic goes through the delivery
// provider instead.
type Service interface {
	SendWelcome(ctx context.Context, to string, name string) error
}
