package duel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/auth"
	"github.com/mcoot/wordduel/internal/storage/memory"
	"github.com/mcoot/wordduel/internal/testutil"
)

const password = "open sesame"

// recordingSender collects every message per connection
type recordingSender struct {
	mu      sync.Mutex
	outbox  map[ConnID][]protocol.Message
	failing map[ConnID]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{
		outbox:  make(map[ConnID][]protocol.Message),
		failing: make(map[ConnID]bool),
	}
}

func (r *recordingSender) Send(conn ConnID, m protocol.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[conn] {
		return errors.New("connection closed")
	}
	r.outbox[conn] = append(r.outbox[conn], m)
	return nil
}

// take returns and clears everything sent to conn
func (r *recordingSender) take(conn ConnID) []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.outbox[conn]
	delete(r.outbox, conn)
	return msgs
}

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	sender     *recordingSender
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.sender = newRecordingSender()
	s.ctx = context.Background()

	authService, err := auth.New(s.storage, s.random, auth.Config{
		Password: password,
		HashCost: bcrypt.MinCost,
	}, testutil.NopLogger())
	s.Require().NoError(err)

	cfg := DefaultConfig()
	cfg.GiveUpWord = "!giveup"
	cfg.MaxAttempts = 3

	s.controller = NewController(s.storage, authService, s.clock, cfg, testutil.NopLogger())
	s.controller.SetSender(s.sender)
}

// login connects conn and authenticates it as id
func (s *ControllerSuite) login(conn ConnID, id string) {
	s.controller.Connect(s.ctx, conn)
	s.random.Queue(id)
	s.handle(conn, protocol.SendPassword(password))
	msgs := s.sender.take(conn)
	s.Require().Equal([]protocol.Message{protocol.RequestPassword(), protocol.ValidPassword(id)}, msgs)
}

func (s *ControllerSuite) handle(conn ConnID, m protocol.Message) {
	s.Require().NoError(s.controller.Handle(s.ctx, conn, m))
}

// startMatch logs in A (conn 1) and B (conn 2) and has A set "giraffe" for B
func (s *ControllerSuite) startMatch() {
	s.login(1, "AAAAAA")
	s.login(2, "BBBBBB")
	s.handle(1, protocol.RequestMatch("AAAAAA", "BBBBBB", "giraffe"))
	s.Require().Equal([]protocol.Message{protocol.RequestWord("AAAAAA")}, s.sender.take(2))
	s.Require().Empty(s.sender.take(1))
}

func (s *ControllerSuite) guess(word string) {
	s.handle(2, protocol.CheckWord("BBBBBB", "AAAAAA", word))
}

func (s *ControllerSuite) state(conn ConnID) State {
	s.controller.mu.Lock()
	defer s.controller.mu.Unlock()
	sess, ok := s.controller.sessions[conn]
	s.Require().True(ok, "no session for conn %d", conn)
	return sess.state
}

// Authentication tests

func (s *ControllerSuite) TestConnectRequestsPassword() {
	s.controller.Connect(s.ctx, 1)
	s.Equal([]protocol.Message{protocol.RequestPassword()}, s.sender.take(1))
	s.Equal(StateUnauthenticated, s.state(1))
}

func (s *ControllerSuite) TestValidPasswordRegistersPlayer() {
	s.login(1, "AAAAAA")

	player, err := s.storage.GetPlayer(s.ctx, "AAAAAA")
	s.Require().NoError(err)
	s.Equal(s.clock.Now(), player.ConnectedAt)
	s.Equal(StateIdle, s.state(1))
}

func (s *ControllerSuite) TestInvalidPasswordKeepsConnection() {
	s.controller.Connect(s.ctx, 1)
	s.sender.take(1)

	s.handle(1, protocol.SendPassword("wrong"))
	s.Equal([]protocol.Message{protocol.InvalidPassword()}, s.sender.take(1))
	s.Equal(StateUnauthenticated, s.state(1))

	s.random.Queue("AAAAAA")
	s.handle(1, protocol.SendPassword(password))
	s.Equal([]protocol.Message{protocol.ValidPassword("AAAAAA")}, s.sender.take(1))
}

func (s *ControllerSuite) TestUnauthenticatedRequestIsAnsweredWithPasswordRequest() {
	s.controller.Connect(s.ctx, 1)
	s.sender.take(1)

	s.handle(1, protocol.RequestOpponents("AAAAAA"))
	s.Equal([]protocol.Message{protocol.RequestPassword()}, s.sender.take(1))
}

func (s *ControllerSuite) TestUnknownConnectionIsIgnored() {
	s.handle(99, protocol.SendPassword(password))
	s.Empty(s.sender.take(99))
}

// Opponent listing tests

func (s *ControllerSuite) TestNoOpponentsWhenAlone() {
	s.login(1, "AAAAAA")

	s.handle(1, protocol.RequestOpponents("AAAAAA"))
	msgs := s.sender.take(1)
	s.Require().Len(msgs, 1)
	s.Equal(protocol.KindNoOpponents, msgs[0].Kind)
	s.Equal(protocol.ErrorNoOpponents, protocol.Value(msgs[0].ErrorKind))
}

func (s *ControllerSuite) TestOpponentsListExcludesRequester() {
	s.login(1, "AAAAAA")
	s.login(2, "BBBBBB")
	s.login(3, "CCCCCC")

	s.handle(2, protocol.RequestOpponents("BBBBBB"))
	s.Equal([]protocol.Message{protocol.OpponentsList([]string{"AAAAAA", "CCCCCC"})}, s.sender.take(2))
}

// Match request tests

func (s *ControllerSuite) TestMatchAcceptedPromptsGuesser() {
	s.startMatch()

	match, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("AAAAAA"), match.SetterID)
	s.Equal("giraffe", match.SecretWord)
	s.Equal(0, match.WrongAttempts)

	s.Equal(StateWaiting, s.state(1))
	s.Equal(StateGuessing, s.state(2))
}

func (s *ControllerSuite) TestMatchRejectedForUnknownOpponent() {
	s.login(1, "AAAAAA")
	s.login(2, "BBBBBB")

	s.handle(1, protocol.RequestMatch("AAAAAA", "ZZZZZZ", "giraffe"))
	s.Equal([]protocol.Message{
		protocol.RejectMatch([]string{"BBBBBB"}, protocol.ErrorInvalidOpponent),
	}, s.sender.take(1))
	s.Equal(StateIdle, s.state(1))
}

func (s *ControllerSuite) TestMatchRejectedAgainstSelf() {
	s.login(1, "AAAAAA")
	s.login(2, "BBBBBB")

	s.handle(1, protocol.RequestMatch("AAAAAA", "AAAAAA", "giraffe"))
	msgs := s.sender.take(1)
	s.Require().Len(msgs, 1)
	s.Equal(protocol.ErrorInvalidOpponent, protocol.Value(msgs[0].ErrorKind))
}

func (s *ControllerSuite) TestMatchRejectedWhenOpponentIsGuessing() {
	s.startMatch()
	s.login(3, "CCCCCC")

	s.handle(3, protocol.RequestMatch("CCCCCC", "BBBBBB", "zebra"))
	s.Equal([]protocol.Message{
		protocol.RejectMatch([]string{"AAAAAA", "BBBBBB"}, protocol.ErrorOpponentUnavailable),
	}, s.sender.take(3))

	match, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("AAAAAA"), match.SetterID)
}

func (s *ControllerSuite) TestMatchRejectedWhenOpponentIsSetting() {
	s.startMatch()
	s.login(3, "CCCCCC")

	s.handle(3, protocol.RequestMatch("CCCCCC", "AAAAAA", "zebra"))
	msgs := s.sender.take(3)
	s.Require().Len(msgs, 1)
	s.Equal(protocol.ErrorOpponentUnavailable, protocol.Value(msgs[0].ErrorKind))
}

func (s *ControllerSuite) TestPlayerInMatchCannotRequestAnother() {
	s.startMatch()
	s.login(3, "CCCCCC")

	s.handle(1, protocol.RequestMatch("AAAAAA", "CCCCCC", "zebra"))
	s.Empty(s.sender.take(1))
	s.Empty(s.sender.take(3))

	_, err := s.storage.GetMatchByGuesser(s.ctx, "CCCCCC")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *ControllerSuite) TestMatchRequestNamingAnotherSetterIsDropped() {
	s.login(1, "AAAAAA")
	s.login(2, "BBBBBB")

	s.handle(1, protocol.RequestMatch("BBBBBB", "BBBBBB", "giraffe"))
	s.Empty(s.sender.take(1))
	s.Empty(s.sender.take(2))
}

// Guess tests

func (s *ControllerSuite) TestCorrectGuessEndsMatch() {
	s.startMatch()

	s.guess("giraffe")

	s.Equal([]protocol.Message{protocol.EndMatch(true, protocol.ErrorPlayerGuessedWord)}, s.sender.take(1))
	s.Equal([]protocol.Message{protocol.EndMatch(true, protocol.ErrorYouGuessedWord)}, s.sender.take(2))

	matches, _ := s.storage.ListMatches(s.ctx)
	s.Empty(matches)
	players, _ := s.storage.ListPlayers(s.ctx)
	s.Empty(players)

	s.Equal(StateUnauthenticated, s.state(1))
	s.Equal(StateUnauthenticated, s.state(2))

	results, _ := s.storage.ListResults(s.ctx, 0)
	s.Require().Len(results, 1)
	s.Equal(model.OutcomeGuessed, results[0].Outcome)
	s.Equal(1, results[0].TotalGuesses)
}

func (s *ControllerSuite) TestGuessIsCaseSensitive() {
	s.startMatch()

	s.guess("Giraffe")

	s.Equal([]protocol.Message{protocol.RequestWord("AAAAAA")}, s.sender.take(2))
	s.Equal([]protocol.Message{protocol.InformAttempt("Giraffe")}, s.sender.take(1))
}

func (s *ControllerSuite) TestThirdWrongGuessRequestsHint() {
	s.startMatch()

	for _, word := range []string{"zebra", "lion"} {
		s.guess(word)
		s.Equal([]protocol.Message{protocol.RequestWord("AAAAAA")}, s.sender.take(2))
		s.Equal([]protocol.Message{protocol.InformAttempt(word)}, s.sender.take(1))
	}

	s.guess("hippo")
	s.Empty(s.sender.take(2))
	s.Equal([]protocol.Message{protocol.RequestHint("AAAAAA", "BBBBBB")}, s.sender.take(1))
	s.Equal(StateHinting, s.state(1))
	s.Equal(StateWaiting, s.state(2))

	match, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.Require().NoError(err)
	s.Equal(3, match.WrongAttempts)
}

func (s *ControllerSuite) TestGuessWhileAwaitingHintIsDropped() {
	s.startMatch()
	s.guess("zebra")
	s.guess("lion")
	s.guess("hippo")
	s.sender.take(1)
	s.sender.take(2)

	s.guess("giraffe")
	s.Empty(s.sender.take(1))
	s.Empty(s.sender.take(2))

	_, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.NoError(err)
}

func (s *ControllerSuite) TestHintResetsAttempts() {
	s.startMatch()
	s.guess("zebra")
	s.guess("lion")
	s.guess("hippo")
	s.sender.take(1)
	s.sender.take(2)

	s.handle(1, protocol.SendHint("BBBBBB", "long neck"))
	s.Equal([]protocol.Message{protocol.ShowHint("AAAAAA", "long neck")}, s.sender.take(2))
	s.Equal(StateWaiting, s.state(1))
	s.Equal(StateGuessing, s.state(2))

	match, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.Require().NoError(err)
	s.Equal(0, match.WrongAttempts)
	s.Equal(1, match.HintsGiven)

	// the guess loop restarts from zero
	s.guess("okapi")
	s.Equal([]protocol.Message{protocol.RequestWord("AAAAAA")}, s.sender.take(2))
	s.Equal([]protocol.Message{protocol.InformAttempt("okapi")}, s.sender.take(1))
}

func (s *ControllerSuite) TestHintWithoutRequestIsDropped() {
	s.startMatch()

	s.handle(1, protocol.SendHint("BBBBBB", "long neck"))
	s.Empty(s.sender.take(2))
}

func (s *ControllerSuite) TestGuessFromSetterIsDropped() {
	s.startMatch()

	s.handle(1, protocol.CheckWord("BBBBBB", "AAAAAA", "giraffe"))
	s.Empty(s.sender.take(1))
	s.Empty(s.sender.take(2))

	_, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.NoError(err)
}

func (s *ControllerSuite) TestGiveUpRevealsWordToGuesserOnly() {
	s.startMatch()
	s.guess("zebra")
	s.guess("lion")
	s.sender.take(1)
	s.sender.take(2)

	s.guess("!giveup")

	setterMsgs := s.sender.take(1)
	s.Equal([]protocol.Message{protocol.EndMatch(false, protocol.ErrorOpponentGaveUp)}, setterMsgs)
	s.Nil(setterMsgs[0].Word)

	s.Equal([]protocol.Message{protocol.EndMatchReveal(protocol.ErrorYouGaveUp, "giraffe")}, s.sender.take(2))

	matches, _ := s.storage.ListMatches(s.ctx)
	s.Empty(matches)
	results, _ := s.storage.ListResults(s.ctx, 0)
	s.Require().Len(results, 1)
	s.Equal(model.OutcomeGaveUp, results[0].Outcome)
}

func (s *ControllerSuite) TestReauthenticateAfterMatch() {
	s.startMatch()
	s.guess("giraffe")
	s.sender.take(1)
	s.sender.take(2)

	s.random.Queue("DDDDDD")
	s.handle(1, protocol.SendPassword(password))
	s.Equal([]protocol.Message{protocol.ValidPassword("DDDDDD")}, s.sender.take(1))

	s.handle(1, protocol.RequestOpponents("DDDDDD"))
	msgs := s.sender.take(1)
	s.Require().Len(msgs, 1)
	s.Equal(protocol.KindNoOpponents, msgs[0].Kind)
}

// Disconnect tests

func (s *ControllerSuite) TestDisconnectIdlePlayer() {
	s.login(1, "AAAAAA")

	s.Require().NoError(s.controller.Disconnect(s.ctx, 1))

	_, err := s.storage.GetPlayer(s.ctx, "AAAAAA")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestDisconnectNotifiesOpponent() {
	s.startMatch()

	s.Require().NoError(s.controller.Disconnect(s.ctx, 2))

	s.Equal([]protocol.Message{protocol.EndMatch(false, protocol.ErrorOpponentDisconnected)}, s.sender.take(1))
	s.Equal(StateUnauthenticated, s.state(1))

	players, _ := s.storage.ListPlayers(s.ctx)
	s.Empty(players)
	matches, _ := s.storage.ListMatches(s.ctx)
	s.Empty(matches)

	results, _ := s.storage.ListResults(s.ctx, 0)
	s.Require().Len(results, 1)
	s.Equal(model.OutcomeDisconnected, results[0].Outcome)
}

func (s *ControllerSuite) TestDisconnectUnknownConnection() {
	s.NoError(s.controller.Disconnect(s.ctx, 42))
}

func (s *ControllerSuite) TestIDIsReusableAfterDisconnect() {
	s.login(1, "AAAAAA")
	s.Require().NoError(s.controller.Disconnect(s.ctx, 1))

	s.login(2, "AAAAAA")
}

func (s *ControllerSuite) TestFailedSendStillAppliesState() {
	s.login(1, "AAAAAA")
	s.login(2, "BBBBBB")
	s.sender.failing[2] = true

	s.handle(1, protocol.RequestMatch("AAAAAA", "BBBBBB", "giraffe"))

	_, err := s.storage.GetMatchByGuesser(s.ctx, "BBBBBB")
	s.NoError(err)
	s.Equal(StateGuessing, s.state(2))
}

// Snapshot tests

func (s *ControllerSuite) TestSnapshot() {
	s.startMatch()
	s.login(3, "CCCCCC")
	s.controller.Connect(s.ctx, 4)

	snap, err := s.controller.Snapshot(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(snap.Players, 3)
	s.Len(snap.Matches, 1)
	s.Empty(snap.Results)
	s.Equal(1, snap.Connections[StateUnauthenticated])
	s.Equal(1, snap.Connections[StateIdle])
	s.Equal(1, snap.Connections[StateGuessing])
	s.Equal(1, snap.Connections[StateWaiting])
}

func (s *ControllerSuite) TestResetClearsStaleRecords() {
	_ = s.storage.SavePlayer(s.ctx, &model.Player{ID: "STALE1"})

	s.Require().NoError(s.controller.Reset(s.ctx))

	players, _ := s.storage.ListPlayers(s.ctx)
	s.Empty(players)
}

// Concurrency tests

func (s *ControllerSuite) TestConcurrentLoginsGetDistinctIDs() {
	const n = 20
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(conn ConnID) {
			defer wg.Done()
			s.controller.Connect(s.ctx, conn)
			_ = s.controller.Handle(s.ctx, conn, protocol.SendPassword(password))
		}(ConnID(i))
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 1; i <= n; i++ {
		msgs := s.sender.take(ConnID(i))
		s.Require().Len(msgs, 2, fmt.Sprintf("conn %d", i))
		id := protocol.Value(msgs[1].SetterID)
		s.False(seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	players, _ := s.storage.ListPlayers(s.ctx)
	s.Len(players, n)
}
