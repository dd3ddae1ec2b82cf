package app

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
}

func newTestRelay() *Relay {
	dir := core.NewDirectory()
	r := NewRelay(dir, NewRegistry(dir, nil, nil), nil)
	r.Now = fixedNow
	return r
}

func TestSession_Join_And_Message_Flow(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay()

	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	alice := relay.Open("a", aliceConn)
	bob := relay.Open("b", bobConn)

	// Given alice joins general
	req.NoError(alice.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))
	req.Len(aliceConn.Frames(), 1)
	req.JSONEq(`{"type":"joined","data":{"room":"general","pseudo":"alice","usersCount":1}}`, aliceConn.Frames()[0])

	// When bob joins the same room
	req.NoError(bob.Handle(core.JoinRoom{Pseudo: "bob", Room: "general"}))

	// Then bob is told the count and alice hears about bob
	req.Len(bobConn.Frames(), 1)
	req.JSONEq(`{"type":"joined","data":{"room":"general","pseudo":"bob","usersCount":2}}`, bobConn.Frames()[0])
	req.Len(aliceConn.Frames(), 2)
	req.JSONEq(`{"type":"user-joined","data":{"pseudo":"bob","usersCount":2}}`, aliceConn.Frames()[1])

	// When alice says hi
	req.NoError(alice.Handle(core.SendMessage{Content: "  hi  "}))

	// Then both members receive it, sender included
	want := `{"type":"new-message","data":{"pseudo":"alice","content":"hi","timestamp":"2024-01-02T03:04:05.006Z"}}`
	req.JSONEq(want, aliceConn.Frames()[2])
	req.JSONEq(want, bobConn.Frames()[1])

	// When bob disconnects
	relay.Close(bob)

	// Then alice is told and the room shrinks
	req.JSONEq(`{"type":"user-left","data":{"pseudo":"bob","usersCount":1}}`, aliceConn.Frames()[3])
	req.Equal(1, relay.Directory.Size("general"))
	req.Len(bobConn.Frames(), 2)
}

func TestSession_Switch_Room_Leaves_Before_Joining(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	out := NewMockEmitter(ctrl)
	dir := core.NewDirectory()
	dir.Join("general", core.Member{SID: "other", Identity: "carol"})

	s := NewSession("a", dir, out, fixedNow, nil)

	out.EXPECT().SendTo(core.SessionID("a"), core.Joined{Room: "general", Pseudo: "alice", UsersCount: 2})
	out.EXPECT().Broadcast(domain.RoomName("general"), core.SessionID("a"), core.UserJoined{Pseudo: "alice", UsersCount: 2})
	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))

	// Expect the old room to be told first, then the new one
	gomock.InOrder(
		out.EXPECT().Broadcast(domain.RoomName("general"), core.SessionID(""), core.UserLeft{Pseudo: "alice", UsersCount: 1}),
		out.EXPECT().SendTo(core.SessionID("a"), core.Joined{Room: "sports", Pseudo: "alice", UsersCount: 1}),
		out.EXPECT().Broadcast(domain.RoomName("sports"), core.SessionID("a"), core.UserJoined{Pseudo: "alice", UsersCount: 1}),
	)

	// When alice switches to sports
	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "sports"}))

	// Then she is bound to sports only
	room, identity, ok := s.Binding()
	req.True(ok)
	req.Equal(domain.RoomName("sports"), room)
	req.Equal(domain.Identity("alice"), identity)
	req.Equal(1, dir.Size("general"))
	req.Equal(1, dir.Size("sports"))
}

func TestSession_Switch_From_Emptied_Room_Sends_No_User_Left(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	out := NewMockEmitter(ctrl)
	dir := core.NewDirectory()
	s := NewSession("a", dir, out, fixedNow, nil)

	out.EXPECT().SendTo(gomock.Any(), gomock.Any()).Times(2)
	out.EXPECT().Broadcast(domain.RoomName("general"), core.SessionID("a"), gomock.Any())
	out.EXPECT().Broadcast(domain.RoomName("sports"), core.SessionID("a"), gomock.Any())

	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))
	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "sports"}))

	req.False(dir.Exists("general"))
	req.Equal(1, dir.Size("sports"))
}

func TestSession_Disconnect_Twice_Is_Silent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	out := NewMockEmitter(ctrl)
	dir := core.NewDirectory()
	dir.Join("general", core.Member{SID: "other", Identity: "bob"})
	s := NewSession("a", dir, out, fixedNow, nil)

	out.EXPECT().SendTo(gomock.Any(), gomock.Any())
	out.EXPECT().Broadcast(domain.RoomName("general"), core.SessionID("a"), gomock.Any())
	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))

	// Exactly one user-left, however often the transport reports the loss
	out.EXPECT().Broadcast(domain.RoomName("general"), core.SessionID(""), core.UserLeft{Pseudo: "alice", UsersCount: 1}).Times(1)

	s.Disconnect()
	s.Disconnect()

	_, _, ok := s.Binding()
	req.False(ok)
	req.Equal(1, dir.Size("general"))

	// And a closed session ignores later events without emitting anything
	req.ErrorIs(s.Handle(core.SendMessage{Content: "late"}), domain.ErrSessionClosed)
	req.ErrorIs(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}), domain.ErrSessionClosed)
	req.Equal(1, dir.Size("general"))
}

func TestSession_Disconnect_While_Unbound(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	out := NewMockEmitter(ctrl)
	dir := core.NewDirectory()
	s := NewSession("a", dir, out, fixedNow, nil)

	// No expectations: nothing may be emitted
	s.Disconnect()

	req.Zero(dir.Len())
}

func TestSession_Rejected_Join_Changes_Nothing(t *testing.T) {
	tests := []struct {
		name    string
		evt     core.JoinRoom
		wantErr error
		wantMsg string
	}{
		{"empty pseudo", core.JoinRoom{Pseudo: "   ", Room: "general"}, domain.ErrInvalidIdentity, "Invalid pseudo (1-20 characters)."},
		{"long pseudo", core.JoinRoom{Pseudo: "abcdefghijklmnopqrstu", Room: "general"}, domain.ErrInvalidIdentity, "Invalid pseudo (1-20 characters)."},
		{"empty room", core.JoinRoom{Pseudo: "alice", Room: ""}, domain.ErrInvalidRoom, "Invalid room name (1-30 characters)."},
		{"long room", core.JoinRoom{Pseudo: "alice", Room: "abcdefghijklmnopqrstuvwxyz01234"}, domain.ErrInvalidRoom, "Invalid room name (1-30 characters)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			out := NewMockEmitter(ctrl)
			dir := core.NewDirectory()
			s := NewSession("a", dir, out, fixedNow, nil)

			// Only the error reaches the sender; no room hears anything
			out.EXPECT().SendTo(core.SessionID("a"), core.ErrorEvent{Message: tt.wantMsg})

			req.ErrorIs(s.Handle(tt.evt), tt.wantErr)

			_, _, ok := s.Binding()
			req.False(ok)
			req.Zero(dir.Len())
		})
	}
}

func TestSession_Rejected_Join_Keeps_Current_Room(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay()
	conn := &fakeConn{}
	s := relay.Open("a", conn)

	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))

	// When a join with a bad room name arrives
	req.ErrorIs(s.Handle(core.JoinRoom{Pseudo: "alice", Room: ""}), domain.ErrInvalidRoom)

	// Then alice is still in general
	room, _, ok := s.Binding()
	req.True(ok)
	req.Equal(domain.RoomName("general"), room)
	req.Equal(1, relay.Directory.Size("general"))
	req.JSONEq(`{"type":"error","data":{"message":"Invalid room name (1-30 characters)."}}`, conn.Frames()[1])
}

func TestSession_Send_Before_Join(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	out := NewMockEmitter(ctrl)
	s := NewSession("a", core.NewDirectory(), out, fixedNow, nil)

	out.EXPECT().SendTo(core.SessionID("a"), core.ErrorEvent{Message: "Join a room before sending a message."})

	req.ErrorIs(s.Handle(core.SendMessage{Content: "hi"}), domain.ErrNotInRoom)
}

func TestSession_Send_Invalid_Content(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay()
	aliceConn, bobConn := &fakeConn{}, &fakeConn{}
	alice := relay.Open("a", aliceConn)
	bob := relay.Open("b", bobConn)
	req.NoError(alice.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))
	req.NoError(bob.Handle(core.JoinRoom{Pseudo: "bob", Room: "general"}))
	bobConn.Reset()

	long := make([]rune, domain.MaxContentLen+1)
	for i := range long {
		long[i] = 'x'
	}
	for _, content := range []string{"", "   \t", string(long)} {
		req.ErrorIs(alice.Handle(core.SendMessage{Content: content}), domain.ErrInvalidMessage)
	}

	// Then bob never heard anything
	req.Empty(bobConn.Frames())
}

func TestSession_Concurrent_Joins(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := relay.Open(core.SessionID(fmt.Sprintf("s%d", i)), &fakeConn{})
			_ = s.Handle(core.JoinRoom{Pseudo: fmt.Sprintf("user%d", i), Room: "general"})
		}()
	}
	wg.Wait()

	req.Equal(n, relay.Directory.Size("general"))
	req.Equal(n, relay.Registry.Len())
}

func TestRelay_Close_Forgets_Connection(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay()
	s := relay.Open("a", &fakeConn{})
	req.NoError(s.Handle(core.JoinRoom{Pseudo: "alice", Room: "general"}))

	info, ok := relay.Room("general")
	req.True(ok)
	req.Equal(core.RoomInfo{Name: "general", UsersCount: 1}, info)

	relay.Close(s)
	relay.Close(s)

	req.Zero(relay.Registry.Len())
	req.Empty(relay.Rooms())
	_, ok = relay.Room("general")
	req.False(ok)
}
