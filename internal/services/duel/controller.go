package duel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/auth"
	"github.com/mcoot/wordduel/internal/storage"
)

// Sender delivers a message to a connection. Implementations must not block;
// a connection whose send fails is expected to be closed by the transport,
// which then reports it through Disconnect.
type Sender interface {
	Send(conn ConnID, m protocol.Message) error
}

// Controller is the server-side duel state machine. Every dispatch runs under
// one mutex, so the session registry and match table have a single writer.
type Controller struct {
	storage storage.Storage
	auth    *auth.Service
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	mu       sync.Mutex
	sender   Sender
	sessions map[ConnID]*session
	players  map[model.PlayerID]ConnID
}

// NewController creates a new duel Controller
func NewController(
	storage storage.Storage,
	authService *auth.Service,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	defaults := DefaultConfig()
	if cfg.GiveUpWord == "" {
		cfg.GiveUpWord = defaults.GiveUpWord
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.ResultsLimit <= 0 {
		cfg.ResultsLimit = defaults.ResultsLimit
	}
	return &Controller{
		storage:  storage,
		auth:     authService,
		clock:    clock,
		logger:   logger.With(slog.String("component", "duel")),
		cfg:      cfg,
		sessions: make(map[ConnID]*session),
		players:  make(map[model.PlayerID]ConnID),
	}
}

// SetSender attaches the transport. It must be called before the first Connect.
func (c *Controller) SetSender(sender Sender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sender = sender
}

// Connect registers a new unauthenticated connection and asks it for the password
func (c *Controller) Connect(ctx context.Context, conn ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[conn] = &session{conn: conn, state: StateUnauthenticated}
	c.logger.Debug("connection registered", slog.Uint64("conn", uint64(conn)))
	c.send(conn, protocol.RequestPassword())
}

// Handle dispatches one decoded message from conn. Game-rule violations are
// logged and dropped; the returned error reports storage failures only.
func (c *Controller) Handle(ctx context.Context, conn ConnID, m protocol.Message) error {
	// The password hash comparison is slow and touches no shared state
	var passwordErr error
	if m.Kind == protocol.KindSendPassword {
		passwordErr = c.auth.CheckPassword(protocol.Value(m.Password))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[conn]
	if !ok {
		c.logger.Warn("message from unknown connection",
			slog.Uint64("conn", uint64(conn)),
			slog.String("kind", m.Kind.String()),
		)
		return nil
	}

	switch sess.state {
	case StateUnauthenticated:
		return c.handleUnauthenticated(ctx, sess, m, passwordErr)
	case StateIdle:
		return c.handleIdle(ctx, sess, m)
	case StateGuessing:
		if m.Kind == protocol.KindCheckWord {
			return c.handleGuess(ctx, sess, m)
		}
	case StateHinting:
		if m.Kind == protocol.KindSendHint {
			return c.handleHint(ctx, sess, m)
		}
	}

	c.dropped(sess, m)
	return nil
}

// Disconnect removes conn and its player. A match the player was in is torn
// down and the opponent is told why.
func (c *Controller) Disconnect(ctx context.Context, conn ConnID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[conn]
	if !ok {
		return nil
	}
	delete(c.sessions, conn)

	if sess.player == "" {
		c.logger.Debug("unauthenticated connection closed", slog.Uint64("conn", uint64(conn)))
		return nil
	}

	playerID := sess.player
	delete(c.players, playerID)

	if sess.match != "" {
		match, err := c.storage.GetMatchByGuesser(ctx, sess.match)
		if err != nil && !errors.Is(err, model.ErrMatchNotFound) {
			return fmt.Errorf("load match: %w", err)
		}
		if match != nil {
			opponent := match.Opponent(playerID)
			c.sendToPlayer(opponent, protocol.EndMatch(false, protocol.ErrorOpponentDisconnected))
			if err := c.conclude(ctx, match, model.OutcomeDisconnected); err != nil {
				return err
			}
		}
	}

	if err := c.storage.DeletePlayer(ctx, playerID); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}

	c.logger.Info("player disconnected",
		slog.String("player_id", string(playerID)),
		slog.Duration("session_duration", c.clock.Since(sess.since)),
	)
	return nil
}

func (c *Controller) handleUnauthenticated(ctx context.Context, sess *session, m protocol.Message, passwordErr error) error {
	if m.Kind != protocol.KindSendPassword {
		c.dropped(sess, m)
		c.send(sess.conn, protocol.RequestPassword())
		return nil
	}

	if passwordErr != nil {
		c.logger.Info("invalid password", slog.Uint64("conn", uint64(sess.conn)))
		c.send(sess.conn, protocol.InvalidPassword())
		return nil
	}

	playerID, err := c.auth.NewPlayerID(ctx)
	if err != nil {
		return fmt.Errorf("allocate player id: %w", err)
	}

	player := &model.Player{ID: playerID, ConnectedAt: c.clock.Now()}
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}

	sess.state = StateIdle
	sess.player = playerID
	sess.since = player.ConnectedAt
	c.players[playerID] = sess.conn

	c.logger.Info("player authenticated",
		slog.String("player_id", string(playerID)),
		slog.Uint64("conn", uint64(sess.conn)),
	)
	c.send(sess.conn, protocol.ValidPassword(string(playerID)))
	return nil
}

func (c *Controller) handleIdle(ctx context.Context, sess *session, m protocol.Message) error {
	switch m.Kind {
	case protocol.KindRequestOpponents:
		opponents, err := c.opponentsOf(ctx, sess.player)
		if err != nil {
			return err
		}
		if len(opponents) == 0 {
			c.send(sess.conn, protocol.NoOpponents())
			return nil
		}
		c.send(sess.conn, protocol.OpponentsList(opponents))
		return nil

	case protocol.KindRequestMatch:
		if m.GuesserID == nil || m.Word == nil {
			c.dropped(sess, m)
			return nil
		}
		if m.SetterID != nil && model.PlayerID(*m.SetterID) != sess.player {
			c.logger.Warn("match request names another setter",
				slog.String("player_id", string(sess.player)),
				slog.String("setter_id", *m.SetterID),
			)
			return nil
		}
		return c.requestMatch(ctx, sess, model.PlayerID(*m.GuesserID), *m.Word)
	}

	c.dropped(sess, m)
	return nil
}

// requestMatch creates a match with the requester as setter, or tells the
// requester why the opponent cannot play
func (c *Controller) requestMatch(ctx context.Context, setter *session, opponentID model.PlayerID, word string) error {
	reason, err := c.checkOpponent(ctx, setter.player, opponentID)
	if err != nil {
		return err
	}
	if reason != nil {
		opponents, err := c.opponentsOf(ctx, setter.player)
		if err != nil {
			return err
		}
		c.logger.Info("match rejected",
			slog.String("setter_id", string(setter.player)),
			slog.String("opponent_id", string(opponentID)),
			slog.String("reason", reason.Description()),
		)
		c.send(setter.conn, protocol.RejectMatch(opponents, *reason))
		return nil
	}

	match := &model.Match{
		SetterID:   setter.player,
		GuesserID:  opponentID,
		SecretWord: word,
		CreatedAt:  c.clock.Now(),
	}
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return fmt.Errorf("save match: %w", err)
	}

	guesser := c.sessions[c.players[opponentID]]
	setter.enterMatch(opponentID, StateWaiting)
	guesser.enterMatch(opponentID, StateGuessing)

	c.logger.Info("match started",
		slog.String("setter_id", string(match.SetterID)),
		slog.String("guesser_id", string(match.GuesserID)),
	)
	c.send(guesser.conn, protocol.RequestWord(string(match.SetterID)))
	return nil
}

// checkOpponent returns the rejection reason for a match against opponentID, or nil
func (c *Controller) checkOpponent(ctx context.Context, setterID, opponentID model.PlayerID) (*protocol.ErrorKind, error) {
	invalid := protocol.ErrorInvalidOpponent
	unavailable := protocol.ErrorOpponentUnavailable

	if opponentID == setterID {
		return &invalid, nil
	}
	if _, err := c.storage.GetPlayer(ctx, opponentID); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return &invalid, nil
		}
		return nil, fmt.Errorf("load opponent: %w", err)
	}
	conn, ok := c.players[opponentID]
	if !ok {
		return &invalid, nil
	}

	inMatch, err := c.inMatch(ctx, opponentID)
	if err != nil {
		return nil, err
	}
	if inMatch || c.sessions[conn].state != StateIdle {
		return &unavailable, nil
	}
	return nil, nil
}

func (c *Controller) inMatch(ctx context.Context, id model.PlayerID) (bool, error) {
	if _, err := c.storage.GetMatchByGuesser(ctx, id); err == nil {
		return true, nil
	} else if !errors.Is(err, model.ErrMatchNotFound) {
		return false, fmt.Errorf("load match: %w", err)
	}
	if _, err := c.storage.GetMatchBySetter(ctx, id); err == nil {
		return true, nil
	} else if !errors.Is(err, model.ErrMatchNotFound) {
		return false, fmt.Errorf("load match: %w", err)
	}
	return false, nil
}

// opponentsOf lists every other registered player
func (c *Controller) opponentsOf(ctx context.Context, id model.PlayerID) ([]string, error) {
	players, err := c.storage.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	opponents := make([]string, 0, len(players))
	for _, p := range players {
		if p.ID != id {
			opponents = append(opponents, string(p.ID))
		}
	}
	return opponents, nil
}

func (c *Controller) handleGuess(ctx context.Context, guesser *session, m protocol.Message) error {
	if m.Word == nil {
		c.dropped(guesser, m)
		return nil
	}

	match, err := c.storage.GetMatchByGuesser(ctx, guesser.match)
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}

	guess := *m.Word
	match.TotalGuesses++

	switch {
	case guess == c.cfg.GiveUpWord:
		c.sendToPlayer(match.SetterID, protocol.EndMatch(false, protocol.ErrorOpponentGaveUp))
		c.sendToPlayer(match.GuesserID, protocol.EndMatchReveal(protocol.ErrorYouGaveUp, match.SecretWord))
		return c.conclude(ctx, match, model.OutcomeGaveUp)

	case guess == match.SecretWord:
		c.sendToPlayer(match.SetterID, protocol.EndMatch(true, protocol.ErrorPlayerGuessedWord))
		c.sendToPlayer(match.GuesserID, protocol.EndMatch(true, protocol.ErrorYouGuessedWord))
		return c.conclude(ctx, match, model.OutcomeGuessed)
	}

	match.WrongAttempts++
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return fmt.Errorf("save match: %w", err)
	}

	if match.WrongAttempts < c.cfg.MaxAttempts {
		c.sendToPlayer(match.GuesserID, protocol.RequestWord(string(match.SetterID)))
		c.sendToPlayer(match.SetterID, protocol.InformAttempt(guess))
		return nil
	}

	guesser.state = StateWaiting
	if setter := c.sessionOf(match.SetterID); setter != nil {
		setter.state = StateHinting
	}
	c.logger.Debug("hint requested",
		slog.String("setter_id", string(match.SetterID)),
		slog.Int("wrong_attempts", match.WrongAttempts),
	)
	c.sendToPlayer(match.SetterID, protocol.RequestHint(string(match.SetterID), string(match.GuesserID)))
	return nil
}

func (c *Controller) handleHint(ctx context.Context, setter *session, m protocol.Message) error {
	if m.Hint == nil {
		c.dropped(setter, m)
		return nil
	}

	match, err := c.storage.GetMatchByGuesser(ctx, setter.match)
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}

	match.WrongAttempts = 0
	match.HintsGiven++
	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return fmt.Errorf("save match: %w", err)
	}

	setter.state = StateWaiting
	if guesser := c.sessionOf(match.GuesserID); guesser != nil {
		guesser.state = StateGuessing
	}
	c.sendToPlayer(match.GuesserID, protocol.ShowHint(string(match.SetterID), *m.Hint))
	return nil
}

// conclude removes the match and both of its players and records the result.
// Sessions of the players return to unauthenticated.
func (c *Controller) conclude(ctx context.Context, match *model.Match, outcome model.Outcome) error {
	if err := c.storage.DeleteMatch(ctx, match.GuesserID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}

	for _, id := range []model.PlayerID{match.SetterID, match.GuesserID} {
		if err := c.storage.DeletePlayer(ctx, id); err != nil {
			return fmt.Errorf("delete player: %w", err)
		}
		if sess := c.sessionOf(id); sess != nil {
			sess.reset()
		}
		delete(c.players, id)
	}

	if err := c.storage.SaveResult(ctx, match.Conclude(outcome, c.clock.Now())); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	c.logger.Info("match concluded",
		slog.String("setter_id", string(match.SetterID)),
		slog.String("guesser_id", string(match.GuesserID)),
		slog.String("outcome", string(outcome)),
		slog.Int("total_guesses", match.TotalGuesses),
	)
	return nil
}

func (c *Controller) sessionOf(id model.PlayerID) *session {
	conn, ok := c.players[id]
	if !ok {
		return nil
	}
	return c.sessions[conn]
}

// sendToPlayer drops the message when the player is no longer connected
func (c *Controller) sendToPlayer(id model.PlayerID, m protocol.Message) {
	conn, ok := c.players[id]
	if !ok {
		c.logger.Debug("recipient not connected",
			slog.String("player_id", string(id)),
			slog.String("kind", m.Kind.String()),
		)
		return
	}
	c.send(conn, m)
}

func (c *Controller) send(conn ConnID, m protocol.Message) {
	if c.sender == nil {
		c.logger.Error("no sender attached", slog.String("kind", m.Kind.String()))
		return
	}
	if err := c.sender.Send(conn, m); err != nil {
		c.logger.Warn("send failed",
			slog.Uint64("conn", uint64(conn)),
			slog.String("kind", m.Kind.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) dropped(sess *session, m protocol.Message) {
	c.logger.Warn("message not valid in current state",
		slog.Uint64("conn", uint64(sess.conn)),
		slog.String("player_id", string(sess.player)),
		slog.String("state", sess.state.String()),
		slog.String("kind", m.Kind.String()),
	)
}
