package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/testutil"
)

// scriptedPrompter answers questions from a fixed script
type scriptedPrompter struct {
	mu      sync.Mutex
	answers []string
	asked   []string
	shown   []string
}

func (p *scriptedPrompter) Ask(question string, options ...string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, question)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Show(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, fmt.Sprintf(format, args...))
}

func (p *scriptedPrompter) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.shown, "\n")
}

type SessionSuite struct {
	suite.Suite
	server   *protocol.Conn
	prompter *scriptedPrompter
	session  *Session
	done     chan error
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	serverSide, clientSide := net.Pipe()
	s.server = protocol.NewConn(serverSide)
	s.prompter = &scriptedPrompter{}
	s.session = NewSession(protocol.NewConn(clientSide), s.prompter, testutil.NopLogger())
	s.done = make(chan error, 1)
	s.T().Cleanup(func() {
		_ = serverSide.Close()
		_ = clientSide.Close()
	})
}

func (s *SessionSuite) run(answers ...string) {
	s.prompter.answers = answers
	go func() {
		s.done <- s.session.Run(context.Background())
	}()
}

func (s *SessionSuite) send(m protocol.Message) {
	s.Require().NoError(s.server.Send(m))
}

func (s *SessionSuite) expect(expected protocol.Message) {
	got, err := s.server.Receive()
	s.Require().NoError(err)
	s.Equal(expected, got)
}

func (s *SessionSuite) finished() error {
	select {
	case err := <-s.done:
		return err
	case <-time.After(2 * time.Second):
		s.FailNow("session did not finish")
		return nil
	}
}

func (s *SessionSuite) TestAuthenticateAndChallenge() {
	s.run("pw", "challenge", "BBBBBB", "giraffe")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("pw"))

	s.send(protocol.ValidPassword("AAAAAA"))
	s.expect(protocol.RequestOpponents("AAAAAA"))
	s.Equal("AAAAAA", s.session.PlayerID())

	s.send(protocol.OpponentsList([]string{"BBBBBB", "CCCCCC"}))
	s.expect(protocol.RequestMatch("AAAAAA", "BBBBBB", "giraffe"))

	s.Contains(s.prompter.output(), "BBBBBB, CCCCCC")
}

func (s *SessionSuite) TestInvalidPasswordAsksAgain() {
	s.run("wrong", "right")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("wrong"))

	s.send(protocol.InvalidPassword())
	s.expect(protocol.SendPassword("right"))

	s.Contains(s.prompter.output(), "You entered the wrong password.")
}

func (s *SessionSuite) TestNoOpponentsReturnsToMenu() {
	s.run("pw", "challenge", "challenge")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("pw"))
	s.send(protocol.ValidPassword("AAAAAA"))
	s.expect(protocol.RequestOpponents("AAAAAA"))

	s.send(protocol.NoOpponents())
	s.expect(protocol.RequestOpponents("AAAAAA"))
}

func (s *SessionSuite) TestRejectedMatchAsksAgain() {
	s.run("pw", "challenge", "ZZZZZZ", "giraffe", "BBBBBB", "zebra")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("pw"))
	s.send(protocol.ValidPassword("AAAAAA"))
	s.expect(protocol.RequestOpponents("AAAAAA"))
	s.send(protocol.OpponentsList([]string{"BBBBBB"}))
	s.expect(protocol.RequestMatch("AAAAAA", "ZZZZZZ", "giraffe"))

	s.send(protocol.RejectMatch([]string{"BBBBBB"}, protocol.ErrorInvalidOpponent))
	s.expect(protocol.RequestMatch("AAAAAA", "BBBBBB", "zebra"))
	s.Contains(s.prompter.output(), protocol.ErrorInvalidOpponent.Description())
}

func (s *SessionSuite) TestGuessLoopAndRematch() {
	s.run("pw", "wait", "zebra", "giraffe", "yes")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("pw"))
	s.send(protocol.ValidPassword("BBBBBB"))

	s.send(protocol.RequestWord("AAAAAA"))
	s.expect(protocol.CheckWord("BBBBBB", "AAAAAA", "zebra"))

	s.send(protocol.ShowHint("AAAAAA", "long neck"))
	s.expect(protocol.CheckWord("BBBBBB", "AAAAAA", "giraffe"))

	s.send(protocol.EndMatch(true, protocol.ErrorYouGuessedWord))
	// the remembered password is reused
	s.expect(protocol.SendPassword("pw"))

	out := s.prompter.output()
	s.Contains(out, "Waiting for a challenge...")
	s.Contains(out, "Hint: long neck")
	s.Contains(out, protocol.ErrorYouGuessedWord.Description())
}

func (s *SessionSuite) TestSetterGivesHint() {
	s.run("pw", "challenge", "BBBBBB", "giraffe", "long neck")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("pw"))
	s.send(protocol.ValidPassword("AAAAAA"))
	s.expect(protocol.RequestOpponents("AAAAAA"))
	s.send(protocol.OpponentsList([]string{"BBBBBB"}))
	s.expect(protocol.RequestMatch("AAAAAA", "BBBBBB", "giraffe"))

	s.send(protocol.InformAttempt("zebra"))
	s.send(protocol.RequestHint("AAAAAA", "BBBBBB"))
	s.expect(protocol.SendHint("BBBBBB", "long neck"))

	s.Contains(s.prompter.output(), `Your opponent guessed "zebra".`)
}

func (s *SessionSuite) TestGiveUpRevealsWordAndQuit() {
	s.run("pw", "wait", "!giveup", "no")

	s.send(protocol.RequestPassword())
	s.expect(protocol.SendPassword("pw"))
	s.send(protocol.ValidPassword("BBBBBB"))
	s.send(protocol.RequestWord("AAAAAA"))
	s.expect(protocol.CheckWord("BBBBBB", "AAAAAA", "!giveup"))

	s.send(protocol.EndMatchReveal(protocol.ErrorYouGaveUp, "giraffe"))
	s.NoError(s.finished())
	s.Contains(s.prompter.output(), `The word was "giraffe".`)
}

func (s *SessionSuite) TestServerCloseEndsSession() {
	s.run()

	s.Require().NoError(s.server.Close())
	s.NoError(s.finished())
}

func (s *SessionSuite) TestCancelEndsSession() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		s.done <- s.session.Run(ctx)
	}()

	cancel()
	s.ErrorIs(s.finished(), context.Canceled)
}

func TestTerminalPrompterValidatesOptions(t *testing.T) {
	var out strings.Builder
	p := NewTerminalPrompter(strings.NewReader("maybe\nwait\n"), &out)

	answer, err := p.Ask("Challenge or wait", "challenge", "wait")
	require.NoError(t, err)
	assert.Equal(t, "wait", answer)
	assert.Contains(t, out.String(), "Please answer one of: challenge, wait")
}

func TestTerminalPrompterEOF(t *testing.T) {
	p := NewTerminalPrompter(strings.NewReader(""), io.Discard)

	_, err := p.Ask("Password")
	assert.ErrorIs(t, err, io.EOF)
}
