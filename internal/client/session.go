package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/transport"
)

// Menu answers
const (
	actionChallenge = "challenge"
	actionWait      = "wait"
	answerYes       = "yes"
	answerNo        = "no"
)

// errQuit ends a session at the player's request
var errQuit = errors.New("player quit")

// Session plays the client side of a duel over one connection
type Session struct {
	conn     *protocol.Conn
	prompter Prompter
	logger   *slog.Logger

	password string
	playerID string
}

// Dial connects to the game server described by cfg
func Dial(ctx context.Context, cfg transport.Config) (*protocol.Conn, error) {
	network, addr, err := cfg.Address()
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	raw, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, addr, err)
	}
	return protocol.NewConn(raw), nil
}

// NewSession creates a Session over conn
func NewSession(conn *protocol.Conn, prompter Prompter, logger *slog.Logger) *Session {
	return &Session{
		conn:     conn,
		prompter: prompter,
		logger:   logger.With(slog.String("component", "client")),
	}
}

// PlayerID returns the id assigned at the last successful authentication
func (s *Session) PlayerID() string {
	return s.playerID
}

// Run reacts to server messages until the server closes the connection,
// the player quits or ctx is cancelled
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	for {
		m, err := s.conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, protocol.ErrMalformed) {
				s.logger.Warn("skipping malformed frame", slog.String("error", err.Error()))
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.prompter.Show("Connection closed by server.")
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		if err := s.react(m); err != nil {
			if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *Session) react(m protocol.Message) error {
	s.logger.Debug("received", slog.Any("message", m))

	switch m.Kind {
	case protocol.KindRequestPassword:
		return s.authenticate(true)

	case protocol.KindInvalidPassword:
		s.showReason(m)
		return s.authenticate(true)

	case protocol.KindValidPassword:
		s.playerID = protocol.Value(m.SetterID)
		s.prompter.Show("Authenticated. Your id is %s.", s.playerID)
		return s.menu()

	case protocol.KindOpponentsList:
		opponents := protocol.SplitOpponents(protocol.Value(m.Opponents))
		s.prompter.Show("Opponents: %s", strings.Join(opponents, ", "))
		return s.challenge()

	case protocol.KindNoOpponents:
		s.showReason(m)
		return s.menu()

	case protocol.KindRejectMatch:
		s.showReason(m)
		opponents := protocol.SplitOpponents(protocol.Value(m.Opponents))
		if len(opponents) == 0 {
			return s.menu()
		}
		s.prompter.Show("Opponents: %s", strings.Join(opponents, ", "))
		return s.challenge()

	case protocol.KindRequestWord:
		return s.guess(protocol.Value(m.SetterID), fmt.Sprintf("Guess the word set by %s", protocol.Value(m.SetterID)))

	case protocol.KindInformAttempt:
		s.prompter.Show("Your opponent guessed %q.", protocol.Value(m.Word))
		return nil

	case protocol.KindRequestHint:
		hint, err := s.prompter.Ask("Your opponent is stuck. Give a hint")
		if err != nil {
			return err
		}
		return s.conn.Send(protocol.SendHint(protocol.Value(m.GuesserID), hint))

	case protocol.KindShowHint:
		s.prompter.Show("Hint: %s", protocol.Value(m.Hint))
		return s.guess(protocol.Value(m.SetterID), "Guess again")

	case protocol.KindSendEndMatch:
		return s.endMatch(m)
	}

	s.logger.Warn("unexpected message", slog.String("kind", m.Kind.String()))
	return nil
}

// authenticate sends the password, asking for it when ask is set or none is remembered
func (s *Session) authenticate(ask bool) error {
	if ask || s.password == "" {
		password, err := s.prompter.Ask("Password")
		if err != nil {
			return err
		}
		s.password = password
	}
	return s.conn.Send(protocol.SendPassword(s.password))
}

func (s *Session) menu() error {
	action, err := s.prompter.Ask("Challenge an opponent or wait to be challenged", actionChallenge, actionWait)
	if err != nil {
		return err
	}
	if action == actionWait {
		s.prompter.Show("Waiting for a challenge...")
		return nil
	}
	return s.conn.Send(protocol.RequestOpponents(s.playerID))
}

func (s *Session) challenge() error {
	opponent, err := s.prompter.Ask("Opponent id")
	if err != nil {
		return err
	}
	word, err := s.prompter.Ask("Secret word")
	if err != nil {
		return err
	}
	return s.conn.Send(protocol.RequestMatch(s.playerID, opponent, word))
}

func (s *Session) guess(setterID, question string) error {
	word, err := s.prompter.Ask(question)
	if err != nil {
		return err
	}
	return s.conn.Send(protocol.CheckWord(s.playerID, setterID, word))
}

func (s *Session) endMatch(m protocol.Message) error {
	if protocol.Value(m.Status) {
		s.prompter.Show("Match won. %s", reason(m))
	} else {
		s.prompter.Show("Match over. %s", reason(m))
	}
	if m.Word != nil {
		s.prompter.Show("The word was %q.", *m.Word)
	}

	again, err := s.prompter.Ask("Play again?", answerYes, answerNo)
	if err != nil {
		return err
	}
	if again != answerYes {
		return errQuit
	}
	return s.authenticate(false)
}

func (s *Session) showReason(m protocol.Message) {
	s.prompter.Show("%s", reason(m))
}

func reason(m protocol.Message) string {
	if m.ErrorKind == nil {
		return ""
	}
	return m.ErrorKind.Description()
}
