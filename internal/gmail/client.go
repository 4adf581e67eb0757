package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// Client is the surface of the Gmail API this service consumes. Handlers get
// a fresh client per request from the caller's OAuth access token; tests
// substitute a fake.
type Client interface {
	GetProfile(ctx context.Context) (*gmailapi.Profile, error)
	ListMessages(ctx context.Context, maxResults int64, query string) ([]*gmailapi.Message, error)
	GetMessage(ctx context.Context, id string) (*gmailapi.Message, error)
	GetThread(ctx context.Context, id string) (*gmailapi.Thread, error)
	SendMessage(ctx context.Context, raw string) (*gmailapi.Message, error)
	ModifyMessage(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) error
	TrashMessage(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id string) error
}

type client struct {
	srv *gmailapi.Service
}

// NewClient builds a Gmail client from a user's OAuth access token.
func NewClient(ctx context.Context, accessToken string) (Client, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &client{srv: srv}, nil
}

func (c *client) GetProfile(ctx context.Context) (*gmailapi.Profile, error) {
	profile, err := c.srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (c *client) ListMessages(ctx context.Context, maxResults int64, query string) ([]*gmailapi.Message, error) {
	res, err := c.srv.Users.Messages.List(user).
		MaxResults(maxResults).
		Q(query).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return res.Messages, nil
}

func (c *client) GetMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	msg, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

func (c *client) GetThread(ctx context.Context, id string) (*gmailapi.Thread, error) {
	thread, err := c.srv.Users.Threads.Get(user, id).Format("minimal").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", id, err)
	}
	return thread, nil
}

func (c *client) SendMessage(ctx context.Context, raw string) (*gmailapi.Message, error) {
	msg, err := c.srv.Users.Messages.Send(user, &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

func (c *client) ModifyMessage(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) error {
	req := &gmailapi.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}
	if _, err := c.srv.Users.Messages.Modify(user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to modify message %s: %w", id, err)
	}
	return nil
}

func (c *client) TrashMessage(ctx context.Context, id string) error {
	if _, err := c.srv.Users.Messages.Trash(user, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to trash message %s: %w", id, err)
	}
	return nil
}

func (c *client) DeleteMessage(ctx context.Context, id string) error {
	if err := c.srv.Users.Messages.Delete(user, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}
