package client

import (
	"context"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// RecipientsClient implements exo.RecipientsClient over Invoke.
type RecipientsClient struct {
	client *Client
}

// GetMailbox implements exo.RecipientsClient.
func (r *RecipientsClient) GetMailbox(ctx context.Context, identity string) (exo.Record, error) {
	return r.single(ctx, "Get-Mailbox", identity)
}

// GetRecipient implements exo.RecipientsClient.
func (r *RecipientsClient) GetRecipient(ctx context.Context, identity string) (exo.Record, error) {
	return r.single(ctx, "Get-Recipient", identity)
}

// ListMailboxes implements exo.RecipientsClient.
func (r *RecipientsClient) ListMailboxes(ctx context.Context, opts *exo.InvokeOptions) ([]exo.Record, error) {
	result, err := r.client.Invoke(ctx, "Get-Mailbox", nil, opts)
	if err != nil {
		return nil, err
	}

	return result.Records, nil
}

func (r *RecipientsClient) single(ctx context.Context, cmdlet, identity string) (exo.Record, error) {
	if identity == "" {
		return nil, constants.ErrIdentityRequired
	}

	result, err := r.client.Invoke(ctx, cmdlet, exo.Parameters{
		"Identity": exo.Scalar(identity),
	}, &exo.InvokeOptions{MaxResults: 1})
	if err != nil {
		return nil, err
	}

	if len(result.Records) == 0 {
		return nil, nil
	}

	return result.Records[0], nil
}
