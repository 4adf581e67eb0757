package testutil

import (
	"context"
	"fmt"
	"sync"

	gmailapi "google.golang.org/api/gmail/v1"
)

// FakeGmail is an in-memory stand-in for the Gmail API used across sync,
// action and handler tests. Zero value is usable; populate the fields a test
// needs.
type FakeGmail struct {
	mu sync.Mutex

	Profile    *gmailapi.Profile
	ProfileErr error

	ListResult []*gmailapi.Message
	ListErr    error

	Messages    map[string]*gmailapi.Message
	MessageErrs map[string]error

	Threads map[string]*gmailapi.Thread

	SendResult *gmailapi.Message
	SendErr    error
	SentRaw    []string

	ModifyErr error
	TrashErr  error
	DeleteErr error

	ModifiedIDs []string
	TrashedIDs  []string
	DeletedIDs  []string
}

func (f *FakeGmail) GetProfile(_ context.Context) (*gmailapi.Profile, error) {
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	if f.Profile != nil {
		return f.Profile, nil
	}
	return &gmailapi.Profile{EmailAddress: "me@example.com"}, nil
}

func (f *FakeGmail) ListMessages(_ context.Context, _ int64, _ string) ([]*gmailapi.Message, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.ListResult, nil
}

func (f *FakeGmail) GetMessage(_ context.Context, id string) (*gmailapi.Message, error) {
	if err, ok := f.MessageErrs[id]; ok {
		return nil, err
	}
	if msg, ok := f.Messages[id]; ok {
		return msg, nil
	}
	return nil, fmt.Errorf("message %s not found", id)
}

func (f *FakeGmail) GetThread(_ context.Context, id string) (*gmailapi.Thread, error) {
	if thread, ok := f.Threads[id]; ok {
		return thread, nil
	}
	// Tests that don't care about history ids still get a valid thread.
	return &gmailapi.Thread{Id: id, HistoryId: 1}, nil
}

func (f *FakeGmail) SendMessage(_ context.Context, raw string) (*gmailapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.SentRaw = append(f.SentRaw, raw)
	if f.SendResult != nil {
		return f.SendResult, nil
	}
	return &gmailapi.Message{Id: fmt.Sprintf("sent-%d", len(f.SentRaw))}, nil
}

func (f *FakeGmail) ModifyMessage(_ context.Context, id string, _, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ModifyErr != nil {
		return f.ModifyErr
	}
	f.ModifiedIDs = append(f.ModifiedIDs, id)
	return nil
}

func (f *FakeGmail) TrashMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.TrashErr != nil {
		return f.TrashErr
	}
	f.TrashedIDs = append(f.TrashedIDs, id)
	return nil
}

func (f *FakeGmail) DeleteMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.DeletedIDs = append(f.DeletedIDs, id)
	return nil
}
