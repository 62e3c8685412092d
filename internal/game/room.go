package game

import (
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

const collRooms = "rooms"

type RoomsConfig struct {
	Admin domain.Address `json:"admin"`
}

// Rooms is the multiplayer room contract. A room is open for joins while
// Created, plays while InProgress and ends Closed.
type Rooms struct {
	Machine
}

func NewRooms(addr domain.Address) *Rooms {
	return &Rooms{Machine: newMachine(addr, domain.GameKindRoom)}
}

func (g *Rooms) Init(tx repository.Tx, cfg RoomsConfig) error {
	return g.initConfig(tx, cfg.Admin, cfg)
}

func (g *Rooms) roomKey(id uint64) repository.Key {
	return repository.IDKey(g.addr, collRooms, id)
}

func roomIDs(id uint64, extra ...string) map[string]string {
	ids := map[string]string{"room_id": strconv.FormatUint(id, 10)}
	for i := 0; i+1 < len(extra); i += 2 {
		ids[extra[i]] = extra[i+1]
	}
	return ids
}

func (g *Rooms) requireAdmin(r repository.Reader, caller domain.Address) error {
	var cfg RoomsConfig
	if err := g.loadConfig(r, &cfg); err != nil {
		return err
	}
	return domain.RequireAdmin(caller, cfg.Admin)
}

// Room returns the stored room.
func (g *Rooms) Room(r repository.Reader, roomID uint64) (domain.Room, error) {
	var room domain.Room
	ok, err := r.Get(g.roomKey(roomID), &room)
	if err != nil {
		return room, err
	}
	if !ok {
		return room, domain.ErrRoomNotFound
	}
	return room, nil
}

// Players returns the players of a room in join order.
func (g *Rooms) Players(r repository.Reader, roomID uint64) ([]domain.Address, error) {
	room, err := g.Room(r, roomID)
	if err != nil {
		return nil, err
	}
	return room.Players, nil
}

// CreateRoom opens a room for joins. Admin only.
func (g *Rooms) CreateRoom(tx repository.Tx, caller domain.Address, roomID uint64, configHash domain.Hash32) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	if err := g.requireAdmin(tx, caller); err != nil {
		return err
	}
	if roomID == 0 || configHash.IsZero() {
		return domain.ErrInvalidInput
	}
	exists, err := repository.Has(tx, g.roomKey(roomID))
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateGameID
	}
	room := domain.Room{
		RoomID:     roomID,
		ConfigHash: configHash,
		State:      domain.SessionCreated,
		Players:    []domain.Address{},
	}
	if err := tx.Put(g.roomKey(roomID), room); err != nil {
		return err
	}
	return g.emit(tx, domain.EventRoomCreated, roomIDs(roomID), map[string]string{"config_hash": configHash.String()})
}

// JoinRoom adds player to an open room. Each player joins at most once.
func (g *Rooms) JoinRoom(tx repository.Tx, player domain.Address, roomID uint64) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	if player.IsZero() {
		return domain.ErrUnauthorized
	}
	room, err := g.Room(tx, roomID)
	if err != nil {
		return err
	}
	if room.State != domain.SessionCreated {
		return domain.ErrInvalidState
	}
	if room.HasPlayer(player) {
		return domain.ErrDuplicatePlayer
	}
	if room.PlayerCount >= domain.MaxPlayersPerRoom {
		return domain.ErrRoomFull
	}
	if room.PlayerCount == ^uint32(0) {
		return domain.ErrOverflow
	}
	room.Players = append(room.Players, player)
	room.PlayerCount++
	if err := tx.Put(g.roomKey(roomID), room); err != nil {
		return err
	}
	return g.emit(tx, domain.EventPlayerJoined,
		roomIDs(roomID, "player", string(player)),
		map[string]uint32{"player_count": room.PlayerCount},
	)
}

// StartMatch moves an open room with enough players into play. Admin only.
func (g *Rooms) StartMatch(tx repository.Tx, caller domain.Address, roomID uint64) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	if err := g.requireAdmin(tx, caller); err != nil {
		return err
	}
	room, err := g.Room(tx, roomID)
	if err != nil {
		return err
	}
	if room.State != domain.SessionCreated {
		return domain.ErrInvalidState
	}
	if room.PlayerCount < domain.MinPlayersToStart {
		return domain.ErrNotEnoughPlayers
	}
	if room.State, err = room.State.Next(domain.SessionInProgress); err != nil {
		return err
	}
	if err := tx.Put(g.roomKey(roomID), room); err != nil {
		return err
	}
	return g.emit(tx, domain.EventMatchStarted, roomIDs(roomID), map[string]uint32{"player_count": room.PlayerCount})
}

// CloseRoom ends a room from Created or InProgress. Admin only.
func (g *Rooms) CloseRoom(tx repository.Tx, caller domain.Address, roomID uint64) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	if err := g.requireAdmin(tx, caller); err != nil {
		return err
	}
	room, err := g.Room(tx, roomID)
	if err != nil {
		return err
	}
	if room.State, err = room.State.Next(domain.SessionClosed); err != nil {
		return err
	}
	if err := tx.Put(g.roomKey(roomID), room); err != nil {
		return err
	}
	return g.emit(tx, domain.EventRoomClosed, roomIDs(roomID), nil)
}
