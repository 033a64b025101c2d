package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
)

type roomRepoStub struct {
	createErr error
	created   Room

	getRoom Room
	getErr  error

	updateErr error
	updated   Room

	deleteErr error
	deletedID int64

	list    []Room
	listErr error
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if r.createErr != nil {
		return Room{}, r.createErr
	}
	room.ID = 1
	r.created = room
	return room, nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id int64) (Room, error) {
	if r.getErr != nil {
		return Room{}, r.getErr
	}
	if r.getRoom.ID == 0 {
		for _, room := range r.list {
			if room.ID == id {
				return room, nil
			}
		}
		return Room{}, persistence.ErrNotFound
	}
	return r.getRoom, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	if r.updateErr != nil {
		return Room{}, r.updateErr
	}
	r.updated = room
	return room, nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Room, len(r.list))
	copy(out, r.list)
	return out, nil
}

func intPtr(v int) *int { return &v }

func TestRoomService_CreateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{UserID: 2, IsAdmin: false},
			Input:     RoomInput{Name: "Atrium"},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("validates attributes", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{UserID: 1, IsAdmin: true},
			Input: RoomInput{
				Name:     "   ",
				Location: strings.Repeat("x", 201),
				Capacity: intPtr(0),
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["name"] != msgRequired {
			t.Fatalf("expected name required, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["location"]; !ok {
			t.Fatalf("expected location length error, got %v", vErr.FieldErrors)
		}
		if vErr.FieldErrors["capacity"] != "Ensure this value is greater than 0." {
			t.Fatalf("expected capacity error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("persists trimmed rooms with default capacity", func(t *testing.T) {
		repo := &roomRepoStub{}
		now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
		svc := NewRoomService(repo, func() time.Time { return now })

		created, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{UserID: 1, IsAdmin: true},
			Input:     RoomInput{Name: "  Atrium  ", Location: "  "},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.created.Name != "Atrium" {
			t.Fatalf("expected name to be trimmed, got %q", repo.created.Name)
		}
		if repo.created.Location != nil {
			t.Fatalf("expected blank location to be stored as nil, got %q", *repo.created.Location)
		}
		if repo.created.Capacity != DefaultRoomCapacity {
			t.Fatalf("expected default capacity, got %d", repo.created.Capacity)
		}
		if !repo.created.CreatedAt.Equal(now) {
			t.Fatalf("expected CreatedAt to use injected clock, got %v", repo.created.CreatedAt)
		}
		if created.ID != 1 {
			t.Fatalf("expected returned room to carry ID, got %d", created.ID)
		}
	})

	t.Run("maps duplicate names to a field error", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{createErr: persistence.ErrDuplicate}, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{UserID: 1, IsAdmin: true},
			Input:     RoomInput{Name: "Atrium", Capacity: intPtr(8)},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["name"] != "Meeting room with this Name already exists." {
			t.Fatalf("expected duplicate name error, got %v", err)
		}
	})
}

func TestRoomService_UpdateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil)

		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: Principal{UserID: 2},
			RoomID:    1,
			Input:     RoomInput{Name: "Room"},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("propagates ErrNotFound when the room is missing", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{getErr: persistence.ErrNotFound}, nil)

		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: Principal{UserID: 1, IsAdmin: true},
			RoomID:    9,
			Input:     RoomInput{Name: "Room"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("keeps existing capacity when omitted", func(t *testing.T) {
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		repo := &roomRepoStub{getRoom: Room{ID: 1, Name: "Atrium", Capacity: 20, CreatedAt: created}}
		svc := NewRoomService(repo, nil)

		updated, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: Principal{UserID: 1, IsAdmin: true},
			RoomID:    1,
			Input:     RoomInput{Name: " Maple ", Location: " 11F"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.updated.Name != "Maple" || repo.updated.Capacity != 20 {
			t.Fatalf("unexpected update %#v", repo.updated)
		}
		if repo.updated.Location == nil || *repo.updated.Location != "11F" {
			t.Fatalf("expected trimmed location, got %v", repo.updated.Location)
		}
		if !repo.updated.CreatedAt.Equal(created) {
			t.Fatalf("expected created timestamp to remain unchanged")
		}
		if updated.ID != 1 {
			t.Fatalf("expected returned room to include ID, got %d", updated.ID)
		}
	})
}

func TestRoomService_DeleteRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil)

		if err := svc.DeleteRoom(context.Background(), Principal{UserID: 2}, 1); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("propagates ErrNotFound when the room is missing", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{deleteErr: persistence.ErrNotFound}, nil)

		if err := svc.DeleteRoom(context.Background(), Principal{UserID: 1, IsAdmin: true}, 5); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("allows administrators to delete rooms", func(t *testing.T) {
		repo := &roomRepoStub{}
		svc := NewRoomService(repo, nil)

		if err := svc.DeleteRoom(context.Background(), Principal{UserID: 1, IsAdmin: true}, 3); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != 3 {
			t.Fatalf("expected repository to receive room ID, got %d", repo.deletedID)
		}
	})
}

func TestRoomService_ListRooms(t *testing.T) {
	east := "East wing"
	repo := &roomRepoStub{list: []Room{
		{ID: 1, Name: "Atrium", Location: &east, Capacity: 12},
		{ID: 2, Name: "Boardroom", Capacity: 8},
		{ID: 3, Name: "Cellar", Capacity: 4},
	}}
	svc := NewRoomService(repo, nil)

	t.Run("returns every room without a query", func(t *testing.T) {
		got, err := svc.ListRooms(context.Background(), ListRoomsParams{Principal: Principal{UserID: 2}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected three rooms, got %d", len(got))
		}
	})

	t.Run("matches name or location case-insensitively", func(t *testing.T) {
		got, err := svc.ListRooms(context.Background(), ListRoomsParams{Query: "EAST"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 || got[0].ID != 1 {
			t.Fatalf("expected Atrium only, got %+v", got)
		}

		got, _ = svc.ListRooms(context.Background(), ListRoomsParams{Query: "board"})
		if len(got) != 1 || got[0].ID != 2 {
			t.Fatalf("expected Boardroom only, got %+v", got)
		}
	})
}

func TestMapRoomRepoError(t *testing.T) {
	unexpected := errors.New("boom")

	tests := map[string]struct {
		err      error
		expected error
		field    string
	}{
		"nil":                   {err: nil, expected: nil},
		"application not found": {err: ErrNotFound, expected: ErrNotFound},
		"persistence not found": {err: persistence.ErrNotFound, expected: ErrNotFound},
		"duplicate":             {err: persistence.ErrDuplicate, field: "name"},
		"constraint":            {err: persistence.ErrConstraintViolation, field: "capacity"},
		"unexpected":            {err: unexpected, expected: unexpected},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			result := mapRoomRepoError(tc.err)

			if tc.field != "" {
				var vErr *ValidationError
				if !errors.As(result, &vErr) {
					t.Fatalf("expected ValidationError, got %T", result)
				}
				if msg := vErr.FieldErrors[tc.field]; msg == "" {
					t.Fatalf("expected %s validation message, got %v", tc.field, vErr.FieldErrors)
				}
				return
			}
			if tc.expected == nil {
				if result != nil {
					t.Fatalf("expected nil, got %v", result)
				}
				return
			}
			if !errors.Is(result, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, result)
			}
		})
	}
}
