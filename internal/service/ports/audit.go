package ports

import (
	"context"

	"github.com/robertarktes/event-registrations/internal/domain"
)

// Auditor records who did what. Implementations are best-effort.
type Auditor interface {
	LogEvent(ctx context.Context, action, actor string, data map[string]interface{}) error
}

type TicketStore interface {
	SaveTicket(ctx context.Context, prep domain.NFTMintPreparation, attendeeWallet string) error
}
