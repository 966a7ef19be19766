package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	InitializeLogger(zap.NewNop())
}

func TestNewWalkupSongValidation(t *testing.T) {
	song, err := NewWalkupSong(" dodgers ", " Mookie Betts ", " Song A ", " Artist A ")
	require.NoError(t, err)
	require.Equal(t, "dodgers", song.Team)
	require.Equal(t, "Mookie Betts", song.Player)
	require.Equal(t, "Song A", song.SongName)
	require.Equal(t, "Artist A", song.SongArtist)
	require.Nil(t, song.SpotifyURI)
	require.Nil(t, song.Explicit)

	_, err = NewWalkupSong("", "Mookie Betts", "Song A", "Artist A")
	require.Error(t, err)
	_, err = NewWalkupSong("dodgers", "  ", "Song A", "Artist A")
	require.Error(t, err)
	_, err = NewWalkupSong("dodgers", "Mookie Betts", "", "Artist A")
	require.Error(t, err)
}

func TestNewWalkupSongAllowsEmptyArtist(t *testing.T) {
	song, err := NewWalkupSong("royals", "Bobby Witt Jr.", "Paradise", "")
	require.NoError(t, err)
	require.Equal(t, "", song.SongArtist)
}

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection reset" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestIsTransient(t *testing.T) {
	require.False(t, isTransient(nil))
	require.False(t, isTransient(errors.New("some logic error")))

	require.True(t, isTransient(fakeNetError{}))

	// Connection exceptions and operator intervention retry.
	require.True(t, isTransient(&pgconn.PgError{Code: "08006"}))
	require.True(t, isTransient(&pgconn.PgError{Code: "57P01"}))
	require.True(t, isTransient(&pgconn.PgError{Code: "40001"}))

	// Constraint violations never retry.
	require.False(t, isTransient(&pgconn.PgError{Code: "23505"}))
	require.False(t, isTransient(&pgconn.PgError{Code: "42601"}))
}

func TestPlayerKeyGrouping(t *testing.T) {
	a := PlayerKey{Team: "dodgers", Player: "Mookie Betts"}
	b := PlayerKey{Team: "dodgers", Player: "Mookie Betts"}
	c := PlayerKey{Team: "redsox", Player: "Mookie Betts"}

	grouped := map[PlayerKey][]*WalkupSong{}
	grouped[a] = append(grouped[a], &WalkupSong{SongName: "Song A"})
	grouped[b] = append(grouped[b], &WalkupSong{SongName: "Song B"})
	grouped[c] = append(grouped[c], &WalkupSong{SongName: "Song C"})

	require.Len(t, grouped, 2)
	require.Len(t, grouped[a], 2)
}

func TestStorageErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := &StorageError{Op: "insert", Err: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "insert")

	var storageErr *StorageError
	require.True(t, errors.As(error(err), &storageErr))
}

type capturedChunk struct {
	op      string
	queries []*pgx.QueuedQuery
}

// captureChunks stubs the batch executor so SaveWalkupSongs can run without
// a database, recording every chunk it would have sent.
func captureChunks(t *testing.T) *[]capturedChunk {
	t.Helper()
	orig := execBatchChunk
	var chunks []capturedChunk
	execBatchChunk = func(ctx context.Context, batch *pgx.Batch, op string) error {
		chunks = append(chunks, capturedChunk{op: op, queries: batch.QueuedQueries})
		return nil
	}
	t.Cleanup(func() { execBatchChunk = orig })
	return &chunks
}

func TestSaveWalkupSongsKeepsRotationSongsCurrent(t *testing.T) {
	chunks := captureChunks(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Machado keeps Song A and swaps Song B for Song C. The deactivation
	// sweep covers the whole player, so the touch statement must flip the
	// kept song back to current or it would vanish from reads.
	kept := &WalkupSong{
		Team: "padres", Player: "Manny Machado", SongName: "Song A",
		FirstSeenDate: day.AddDate(0, 0, -30), LastUpdatedDate: day, IsCurrent: true,
	}
	replacement := &WalkupSong{
		Team: "padres", Player: "Manny Machado", SongName: "Song C",
		FirstSeenDate: day, LastUpdatedDate: day, IsCurrent: true,
	}

	stored, err := SaveWalkupSongs(context.Background(),
		nil, []*WalkupSong{replacement}, []*WalkupSong{kept})
	require.NoError(t, err)
	require.Equal(t, 1, stored)

	require.Len(t, *chunks, 3)
	require.Equal(t, "deactivate", (*chunks)[0].op)
	require.Equal(t, "insert", (*chunks)[1].op)
	require.Equal(t, "touch", (*chunks)[2].op)

	deactivate := (*chunks)[0].queries
	require.Len(t, deactivate, 1)
	require.Equal(t, []any{"padres", "Manny Machado"}, deactivate[0].Arguments)

	touch := (*chunks)[2].queries
	require.Len(t, touch, 1)
	require.Contains(t, touch[0].SQL, "is_current = TRUE")
	require.Equal(t, []any{"padres", "Manny Machado", "Song A", day}, touch[0].Arguments)
}

func TestSaveWalkupSongsDeactivatesChangedPlayerOnce(t *testing.T) {
	chunks := captureChunks(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	changed := []*WalkupSong{
		{Team: "yankees", Player: "Aaron Judge", SongName: "Song X", FirstSeenDate: day, LastUpdatedDate: day, IsCurrent: true},
		{Team: "yankees", Player: "Aaron Judge", SongName: "Song Y", FirstSeenDate: day, LastUpdatedDate: day, IsCurrent: true},
	}

	stored, err := SaveWalkupSongs(context.Background(), nil, changed, nil)
	require.NoError(t, err)
	require.Equal(t, 2, stored)

	require.Equal(t, "deactivate", (*chunks)[0].op)
	require.Len(t, (*chunks)[0].queries, 1)
}

func TestSaveWalkupSongsChunksLargeBatches(t *testing.T) {
	chunks := captureChunks(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	newSongs := make([]*WalkupSong, 0, BatchSize+50)
	for i := 0; i < BatchSize+50; i++ {
		newSongs = append(newSongs, &WalkupSong{
			Team: "dodgers", Player: fmt.Sprintf("Player %d", i),
			SongName:      fmt.Sprintf("Song %d", i),
			FirstSeenDate: day, LastUpdatedDate: day, IsCurrent: true,
		})
	}
	unchanged := make([]*WalkupSong, 0, BatchSize+20)
	for i := 0; i < BatchSize+20; i++ {
		unchanged = append(unchanged, &WalkupSong{
			Team: "giants", Player: fmt.Sprintf("Player %d", i),
			SongName:      fmt.Sprintf("Song %d", i),
			FirstSeenDate: day, LastUpdatedDate: day, IsCurrent: true,
		})
	}

	stored, err := SaveWalkupSongs(context.Background(), newSongs, nil, unchanged)
	require.NoError(t, err)
	require.Equal(t, BatchSize+50, stored)

	var insertSizes, touchSizes []int
	for _, chunk := range *chunks {
		switch chunk.op {
		case "insert":
			insertSizes = append(insertSizes, len(chunk.queries))
		case "touch":
			touchSizes = append(touchSizes, len(chunk.queries))
		default:
			t.Fatalf("unexpected %s chunk with no changed songs", chunk.op)
		}
	}
	require.Equal(t, []int{BatchSize, 50}, insertSizes)
	require.Equal(t, []int{BatchSize, 20}, touchSizes)
}

func TestSaveWalkupSongsExactChunkBoundary(t *testing.T) {
	chunks := captureChunks(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	unchanged := make([]*WalkupSong, 0, BatchSize)
	for i := 0; i < BatchSize; i++ {
		unchanged = append(unchanged, &WalkupSong{
			Team: "cubs", Player: fmt.Sprintf("Player %d", i),
			SongName:      fmt.Sprintf("Song %d", i),
			FirstSeenDate: day, LastUpdatedDate: day, IsCurrent: true,
		})
	}

	stored, err := SaveWalkupSongs(context.Background(), nil, nil, unchanged)
	require.NoError(t, err)
	require.Equal(t, 0, stored)

	// A full chunk flushes once with no trailing empty chunk.
	require.Len(t, *chunks, 1)
	require.Equal(t, "touch", (*chunks)[0].op)
	require.Len(t, (*chunks)[0].queries, BatchSize)

	stored, err = SaveWalkupSongs(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, stored)
	require.Len(t, *chunks, 1)
}
