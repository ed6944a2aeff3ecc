package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/clique/internal/domain"
)

var ErrEmptyURL = errors.New("roster url is empty")

// HTTPStore calls an external room CRUD service:
// PATCH {base}/api/rooms/enter and PATCH {base}/api/rooms/leave.
type HTTPStore struct {
	base   string
	client *http.Client
}

type enterRequest struct {
	RoomCode  string `json:"roomCode"`
	GuestID   string `json:"guestId"`
	DispName  string `json:"dispName"`
	GuestName string `json:"guestName"`
	IsOwner   bool   `json:"isOwner"`
}

type leaveRequest struct {
	RoomCode string `json:"roomCode"`
	GuestID  string `json:"guestId"`
}

func NewHTTPStore(baseURL string, timeout time.Duration) (*HTTPStore, error) {
	if baseURL == "" {
		return nil, ErrEmptyURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPStore{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (s *HTTPStore) Enter(ctx context.Context, roomID domain.RoomID, m domain.PastMember) error {
	return s.patch(ctx, "/api/rooms/enter", enterRequest{
		RoomCode:  string(roomID),
		GuestID:   string(m.ID),
		DispName:  m.DisplayName,
		GuestName: m.RealName,
		IsOwner:   m.IsOwner,
	})
}

func (s *HTTPStore) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	return s.patch(ctx, "/api/rooms/leave", leaveRequest{
		RoomCode: string(roomID),
		GuestID:  string(userID),
	})
}

func (s *HTTPStore) patch(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("PATCH %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// Ping is a no-op; the CRUD service has no health contract.
func (s *HTTPStore) Ping(context.Context) error { return nil }

func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
