package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/courtside/club-games/models"
	"github.com/courtside/club-games/repositories"
)

// memStore is an in-memory stand-in for the postgres repositories. The
// transaction manager serializes whole transactions behind one mutex and
// restores a snapshot on error, mirroring the per-game row lock plus
// rollback semantics the real store provides.
type memStore struct {
	mu           sync.RWMutex
	games        map[int]*models.Game
	participants map[int]*models.Participant
	users        map[int]*models.User
	memberships  map[[2]int]models.ClubRole // (clubID, userID) -> role

	nextGameID        int
	nextParticipantID int
	now               time.Time
}

func newMemStore() *memStore {
	return &memStore{
		games:             make(map[int]*models.Game),
		participants:      make(map[int]*models.Participant),
		users:             make(map[int]*models.User),
		memberships:       make(map[[2]int]models.ClubRole),
		nextGameID:        1,
		nextParticipantID: 1,
		now:               time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering by created_at
// is deterministic.
func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *memStore) snapshot() (map[int]*models.Game, map[int]*models.Participant) {
	games := make(map[int]*models.Game, len(s.games))
	for id, g := range s.games {
		copied := *g
		games[id] = &copied
	}
	participants := make(map[int]*models.Participant, len(s.participants))
	for id, p := range s.participants {
		copied := *p
		participants[id] = &copied
	}
	return games, participants
}

func (s *memStore) addUser(id int, level *float64) {
	s.users[id] = &models.User{ID: id, FirstName: "User", Level: level}
}

func (s *memStore) addMember(clubID, userID int, role models.ClubRole) {
	s.memberships[[2]int{clubID, userID}] = role
}

type memTxManager struct {
	store *memStore
	txMu  sync.Mutex
}

func (m *memTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.store.mu.Lock()
	games, participants := m.store.snapshot()
	m.store.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.store.mu.Lock()
		m.store.games = games
		m.store.participants = participants
		m.store.mu.Unlock()
		return err
	}
	return nil
}

type memGameRepo struct {
	store *memStore
}

func (r *memGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	game.ID = r.store.nextGameID
	r.store.nextGameID++
	game.CreatedAt = r.store.tick()
	game.UpdatedAt = game.CreatedAt

	copied := *game
	r.store.games[game.ID] = &copied
	return nil
}

func (r *memGameRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	game, ok := r.store.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (r *memGameRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *memGameRepo) List(_ context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	games := make([]*models.Game, 0)
	for _, g := range r.store.games {
		if filter.ClubID != nil && g.ClubID != *filter.ClubID {
			continue
		}
		if filter.Status != nil && g.Status != *filter.Status {
			continue
		}
		if filter.From != nil && g.StartsAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && g.StartsAt.After(*filter.To) {
			continue
		}
		copied := *g
		games = append(games, &copied)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].StartsAt.Before(games[j].StartsAt) })

	if filter.Offset >= len(games) {
		return []*models.Game{}, nil
	}
	games = games[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(games) {
		games = games[:filter.Limit]
	}
	return games, nil
}

func (r *memGameRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.GameStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	game, ok := r.store.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	game.Status = status
	game.UpdatedAt = r.store.tick()
	return nil
}

type memParticipantRepo struct {
	store *memStore
}

func (r *memParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.participants {
		if existing.GameID == p.GameID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}

	p.ID = r.store.nextParticipantID
	r.store.nextParticipantID++
	p.CreatedAt = r.store.tick()
	p.UpdatedAt = p.CreatedAt

	copied := *p
	r.store.participants[p.ID] = &copied
	return nil
}

func (r *memParticipantRepo) FindByGameAndUser(_ context.Context, _ repositories.SQLExecutor, gameID, userID int) (*models.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.participants {
		if p.GameID == gameID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *memParticipantRepo) ListByGame(_ context.Context, _ repositories.SQLExecutor, gameID int) ([]*models.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	participants := make([]*models.Participant, 0)
	for _, p := range r.store.participants {
		if p.GameID != gameID {
			continue
		}
		copied := *p
		if u, ok := r.store.users[p.UserID]; ok {
			user := *u
			copied.User = &user
		} else {
			copied.User = &models.User{ID: p.UserID}
		}
		participants = append(participants, &copied)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].CreatedAt.Before(participants[j].CreatedAt)
	})
	return participants, nil
}

func (r *memParticipantRepo) CountByGameAndStatus(_ context.Context, _ repositories.SQLExecutor, gameID int, status models.ParticipationStatus) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, p := range r.store.participants {
		if p.GameID == gameID && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memParticipantRepo) UpdateStatusRole(_ context.Context, _ repositories.SQLExecutor, id int, status models.ParticipationStatus, role models.ParticipationRole) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	p.Role = role
	p.UpdatedAt = r.store.tick()
	return nil
}

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

type memClubLookup struct {
	store *memStore
}

func (l *memClubLookup) IsClubOwnerOrAdmin(_ context.Context, clubID, userID int) (bool, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	role, ok := l.store.memberships[[2]int{clubID, userID}]
	return ok && (role == models.ClubRoleOwner || role == models.ClubRoleAdmin), nil
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, len(n.events))
	for i, e := range n.events {
		names[i] = e.Name()
	}
	return names
}

// env bundles a fully wired service pair over one in-memory store.
type env struct {
	store     *memStore
	notifier  *recordingNotifier
	games     GameService
	admission AdmissionService
}

func newEnv() *env {
	store := newMemStore()
	txm := &memTxManager{store: store}
	gameRepo := &memGameRepo{store: store}
	participantRepo := &memParticipantRepo{store: store}
	userRepo := &memUserRepo{store: store}
	clubs := &memClubLookup{store: store}
	notifier := &recordingNotifier{}

	return &env{
		store:     store,
		notifier:  notifier,
		games:     NewGameService(txm, gameRepo, participantRepo, clubs, notifier),
		admission: NewAdmissionService(txm, gameRepo, participantRepo, userRepo, clubs, notifier),
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
