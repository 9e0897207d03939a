package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/itchan-dev/contestbot/shared/domain"
)

// --- In-memory repository ---

type MockRepository struct {
	mu           sync.Mutex
	subs         []domain.Submission
	loadFunc     func() ([]domain.Submission, error)
	saveAllFunc  func(subs []domain.Submission) error
	saveAllCalls int
}

func (m *MockRepository) Load(ctx context.Context) ([]domain.Submission, error) {
	if m.loadFunc != nil {
		return m.loadFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.subs), nil
}

func (m *MockRepository) SaveAll(ctx context.Context, subs []domain.Submission) error {
	m.mu.Lock()
	m.saveAllCalls++
	m.mu.Unlock()
	if m.saveAllFunc != nil {
		if err := m.saveAllFunc(subs); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = slices.Clone(subs)
	return nil
}

func (m *MockRepository) stored() []domain.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.subs)
}

// --- In-memory status store ---

type MockStatusStore struct {
	mu         sync.Mutex
	status     domain.ContestStatus
	loadErr    error
	saveErr    error
	saveCalls  int
	savedValue []bool
}

func (m *MockStatusStore) LoadStatus(ctx context.Context) (domain.ContestStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.ContestStatus{}, m.loadErr
	}
	return m.status, nil
}

func (m *MockStatusStore) SaveStatus(ctx context.Context, status domain.ContestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.status = status
	m.savedValue = append(m.savedValue, status.Open)
	return nil
}

// --- Board ---

type notice struct {
	Channel string
	Text    string
}

type MockBoard struct {
	mu           sync.Mutex
	nextHandle   int
	posted       []domain.Submission
	edited       map[domain.BoardHandle]domain.MediaRef
	seeded       []domain.BoardHandle
	deleted      []domain.BoardHandle
	stripped     []string
	notices      []notice
	postFunc     func(sub domain.Submission) (domain.BoardHandle, error)
	editFunc     func(handle domain.BoardHandle, media domain.MediaRef) error
	seedFunc     func(handle domain.BoardHandle) error
	deleteFunc   func(handle domain.BoardHandle) error
	countFunc    func(ctx context.Context, handle domain.BoardHandle) (int, error)
	notifyFunc   func(channel, text string) error
	countCalls   int
	interactions int
}

func (m *MockBoard) PostCard(ctx context.Context, sub domain.Submission) (domain.BoardHandle, error) {
	m.mu.Lock()
	m.interactions++
	m.mu.Unlock()
	if m.postFunc != nil {
		return m.postFunc(sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHandle++
	m.posted = append(m.posted, sub)
	return fmt.Sprintf("msg-%d", m.nextHandle), nil
}

func (m *MockBoard) EditCard(ctx context.Context, handle domain.BoardHandle, media domain.MediaRef) error {
	m.mu.Lock()
	m.interactions++
	m.mu.Unlock()
	if m.editFunc != nil {
		return m.editFunc(handle, media)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edited == nil {
		m.edited = make(map[domain.BoardHandle]domain.MediaRef)
	}
	m.edited[handle] = media
	return nil
}

func (m *MockBoard) DeleteCard(ctx context.Context, handle domain.BoardHandle) error {
	if m.deleteFunc != nil {
		if err := m.deleteFunc(handle); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, handle)
	return nil
}

func (m *MockBoard) SeedVoteReaction(ctx context.Context, handle domain.BoardHandle) error {
	if m.seedFunc != nil {
		return m.seedFunc(handle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeded = append(m.seeded, handle)
	return nil
}

func (m *MockBoard) FetchVoteReactionCount(ctx context.Context, handle domain.BoardHandle) (int, error) {
	m.mu.Lock()
	m.countCalls++
	m.mu.Unlock()
	if m.countFunc != nil {
		return m.countFunc(ctx, handle)
	}
	return 1, nil
}

func (m *MockBoard) StripDisallowedReaction(ctx context.Context, handle domain.BoardHandle, emoji, userId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stripped = append(m.stripped, handle+"/"+emoji+"/"+userId)
	return nil
}

func (m *MockBoard) Notify(ctx context.Context, channelId, text string) error {
	if m.notifyFunc != nil {
		if err := m.notifyFunc(channelId, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice{Channel: channelId, Text: text})
	return nil
}

func (m *MockBoard) noticesTo(channel string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.notices {
		if n.Channel == channel {
			out = append(out, n.Text)
		}
	}
	return out
}
