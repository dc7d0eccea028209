// Package mailer is the outbound email transport boundary.
//
// Campaign jobs depend on the Transport interface only; the SES
// implementation lives behind it so tests run against a fake. Sends are
// never retried here: a failed send becomes a failed delivery outcome and
// the next scheduled trigger is the retry.
package mailer

import (
	"context"

	"github.com/amorlink/engage/internal/domain"
)

// Result reports one accepted send.
type Result struct {
	ExternalID string // provider message id, when available
}

// Transport dispatches a rendered message to the email provider.
type Transport interface {
	Send(ctx context.Context, msg domain.Message) (Result, error)
}
