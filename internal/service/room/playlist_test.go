package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVideo(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	service.Attach(ctx, &AttachParams{ConnectionId: "a", RoomId: "r1"})
	service.Attach(ctx, &AttachParams{ConnectionId: "b", RoomId: "r1"})

	resp, err := service.AddVideo(ctx, &AddVideoParams{
		RoomId: "r1",
		Video:  Video{Id: "v1", Title: "first", ChannelTitle: "ch"},
	})
	require.NoError(t, err)
	require.Len(t, resp.State.Playlist, 1)
	assert.Equal(t, "first", resp.State.Playlist[0].Title)
	assert.Equal(t, []string{"a", "b"}, resp.Members, "broadcast includes the sender")
}

func TestAddVideoDuplicateIdIsNoOp(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	service.Attach(ctx, &AttachParams{ConnectionId: "a", RoomId: "r1"})

	_, err := service.AddVideo(ctx, &AddVideoParams{
		RoomId: "r1", Video: Video{Id: "v1", Title: "first"},
	})
	require.NoError(t, err)

	_, err = service.AddVideo(ctx, &AddVideoParams{
		RoomId: "r1", Video: Video{Id: "v1", Title: "renamed"},
	})
	assert.ErrorIs(t, err, ErrVideoAlreadyQueued)

	state, err := service.GetState(ctx, &GetStateParams{RoomId: "r1"})
	require.NoError(t, err)
	require.Len(t, state.Playlist, 1)
	assert.Equal(t, "first", state.Playlist[0].Title, "duplicate add must not modify the entry")
}

func TestAddVideoKeepsInsertionOrder(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	service.Attach(ctx, &AttachParams{ConnectionId: "a", RoomId: "r1"})

	for _, id := range []string{"v3", "v1", "v2"} {
		_, err := service.AddVideo(ctx, &AddVideoParams{
			RoomId: "r1", Video: Video{Id: id},
		})
		require.NoError(t, err)
	}

	state, err := service.GetState(ctx, &GetStateParams{RoomId: "r1"})
	require.NoError(t, err)
	require.Len(t, state.Playlist, 3)
	assert.Equal(t, "v3", state.Playlist[0].Id)
	assert.Equal(t, "v1", state.Playlist[1].Id)
	assert.Equal(t, "v2", state.Playlist[2].Id)
}

func TestAddVideoValidation(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	service.Attach(ctx, &AttachParams{ConnectionId: "a", RoomId: "r1"})

	_, err := service.AddVideo(ctx, &AddVideoParams{RoomId: "r1", Video: Video{}})
	assert.ErrorIs(t, err, ErrInvalidVideo)

	_, err = service.AddVideo(ctx, &AddVideoParams{RoomId: "nope", Video: Video{Id: "v1"}})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
