package domain

import "fmt"

// Member is one connected participant of a room.
// No transport or lifecycle logic here.
type Member struct {
	ID          UserID `json:"userId"`
	DisplayName string `json:"dispName"`
	RealName    string `json:"realName,omitempty"`
	IsOwner     bool   `json:"isOwner"`
}

// PastMember is the reduced record kept after a member leaves,
// used to restore the display identity on rejoin.
type PastMember struct {
	RealName    string `json:"realName,omitempty"`
	DisplayName string `json:"dispName"`
	ID          UserID `json:"userId"`
	IsOwner     bool   `json:"isOwner"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
// An empty display name means the client could not be identified.
func NewMember(id UserID, displayName, realName string, isOwner bool) (*Member, error) {
	displayName = normalizeName(displayName)
	realName = normalizeName(realName)
	if displayName == "" {
		return nil, ErrDisplayNameEmpty
	}
	if err := validateName(displayName); err != nil {
		return nil, err
	}
	if err := validateName(realName); err != nil {
		return nil, err
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	return &Member{ID: id, DisplayName: displayName, RealName: realName, IsOwner: isOwner}, nil
}

func (m *Member) Past() PastMember {
	return PastMember{
		RealName:    m.RealName,
		DisplayName: m.DisplayName,
		ID:          m.ID,
		IsOwner:     m.IsOwner,
	}
}

// Label renders "disp (real)", or just "disp" without a real name.
func (m *Member) Label() string {
	if m.RealName == "" {
		return m.DisplayName
	}
	return fmt.Sprintf("%s (%s)", m.DisplayName, m.RealName)
}

// Restore turns a past record back into a live member.
func (p PastMember) Restore() *Member {
	return &Member{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		RealName:    p.RealName,
		IsOwner:     p.IsOwner,
	}
}
