package session

import (
	"sort"
	"sync"

	"github.com/doodleyaar/client/internal/protocol"
)

// Member is one row of the membership presentation, derived from the
// last full snapshot plus the current host id.
type Member struct {
	ID       string
	Nickname string
	You      bool
	Host     bool
}

// Session tracks everything the authority pushes about the session
// itself: code, membership, host identity and the chat log. Membership
// and chat snapshots are full replacements; a host change is an id-only
// notice applied against the cached membership snapshot, so the host
// badge moves without waiting for a fresh member list.
type Session struct {
	mu       sync.RWMutex
	userID   string
	code     string
	nickname string
	hostID   string
	members  map[string]string
	chat     []protocol.ChatMessage
	active   bool
}

func New() *Session {
	return &Session{members: make(map[string]string)}
}

// SetUserID records the channel-assigned identity. Known only once the
// channel is up.
func (s *Session) SetUserID(id string) {
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Begin activates the session from a session-created or join-success
// response. A nil member map seeds the snapshot with just ourselves,
// which is all a freshly created session has.
func (s *Session) Begin(code, nickname, hostID string, members map[string]string, chat []protocol.ChatMessage) {
	s.mu.Lock()
	s.code = code
	s.nickname = nickname
	s.hostID = hostID
	s.members = make(map[string]string, len(members)+1)
	if members == nil {
		s.members[s.userID] = nickname
	} else {
		for id, nick := range members {
			s.members[id] = nick
		}
	}
	s.chat = sortedChat(chat)
	s.active = true
	s.mu.Unlock()
}

// End resets the session on leave.
func (s *Session) End() {
	s.mu.Lock()
	s.code = ""
	s.nickname = ""
	s.hostID = ""
	s.members = make(map[string]string)
	s.chat = nil
	s.active = false
	s.mu.Unlock()
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Session) Code() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

func (s *Session) HostID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hostID
}

// IsHost reports whether we hold the host role right now. Host-only
// actions are gated on this.
func (s *Session) IsHost() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID != "" && s.userID == s.hostID
}

// SetMembers replaces the cached membership snapshot.
func (s *Session) SetMembers(members map[string]string) {
	s.mu.Lock()
	s.members = make(map[string]string, len(members))
	for id, nick := range members {
		s.members[id] = nick
	}
	s.mu.Unlock()
}

// SetHost applies a host-change notice. The membership snapshot stays
// as cached; transient staleness is tolerated rather than waiting for
// the next snapshot.
func (s *Session) SetHost(hostID string) {
	s.mu.Lock()
	s.hostID = hostID
	s.mu.Unlock()
}

// SetChat replaces the chat log, ordered by server timestamp ascending,
// stable for equal timestamps.
func (s *Session) SetChat(chat []protocol.ChatMessage) {
	s.mu.Lock()
	s.chat = sortedChat(chat)
	s.mu.Unlock()
}

// Members derives the presentation list from the cached snapshot,
// sorted by nickname then id so the list is stable across renders.
func (s *Session) Members() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Member, 0, len(s.members))
	for id, nick := range s.members {
		out = append(out, Member{
			ID:       id,
			Nickname: nick,
			You:      id == s.userID,
			Host:     id == s.hostID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Nickname != out[j].Nickname {
			return out[i].Nickname < out[j].Nickname
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Session) MemberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Chat returns a copy of the ordered chat log.
func (s *Session) Chat() []protocol.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out
}

func sortedChat(chat []protocol.ChatMessage) []protocol.ChatMessage {
	out := make([]protocol.ChatMessage, len(chat))
	copy(out, chat)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
