package protocol

import (
	"log/slog"
	"strings"
)

// Kind identifies the purpose of a message. Values are the wire codes.
type Kind uint8

const (
	KindRequestPassword  Kind = 0
	KindSendPassword     Kind = 1
	KindInvalidPassword  Kind = 2
	KindValidPassword    Kind = 3
	KindRequestOpponents Kind = 4
	KindOpponentsList    Kind = 5
	KindNoOpponents      Kind = 6
	KindRequestMatch     Kind = 7
	KindRejectMatch      Kind = 8
	KindRequestWord      Kind = 9  // server asks the guesser for a guess
	KindCheckWord        Kind = 10 // guesser submits a guess
	KindInformAttempt    Kind = 11
	KindRequestHint      Kind = 12
	KindSendHint         Kind = 13
	KindShowHint         Kind = 14
	KindSendEndMatch     Kind = 15
	KindUnknown          Kind = 16 // decode fallback only, never sent
)

var kindNames = [...]string{
	KindRequestPassword:  "request-password",
	KindSendPassword:     "send-password",
	KindInvalidPassword:  "invalid-password",
	KindValidPassword:    "valid-password",
	KindRequestOpponents: "request-opponents",
	KindOpponentsList:    "opponents-list",
	KindNoOpponents:      "no-opponents",
	KindRequestMatch:     "request-match",
	KindRejectMatch:      "reject-match",
	KindRequestWord:      "request-word",
	KindCheckWord:        "check-word",
	KindInformAttempt:    "inform-attempt",
	KindRequestHint:      "request-hint",
	KindSendHint:         "send-hint",
	KindShowHint:         "show-hint",
	KindSendEndMatch:     "send-end-match",
	KindUnknown:          "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is a kind a peer may legitimately send
func (k Kind) Valid() bool {
	return k < KindUnknown
}

// ErrorKind is the failure or outcome reason carried by a message
type ErrorKind uint8

const (
	ErrorInvalidPassword      ErrorKind = 0
	ErrorInvalidOpponent      ErrorKind = 1
	ErrorOpponentUnavailable  ErrorKind = 2
	ErrorNoOpponents          ErrorKind = 3
	ErrorPlayerGuessedWord    ErrorKind = 4
	ErrorYouGuessedWord       ErrorKind = 5
	ErrorOpponentGaveUp       ErrorKind = 6
	ErrorYouGaveUp            ErrorKind = 7
	ErrorOpponentDisconnected ErrorKind = 8
)

var errorDescriptions = [...]string{
	ErrorInvalidPassword:      "You entered the wrong password.",
	ErrorInvalidOpponent:      "You chose an invalid opponent ID.",
	ErrorOpponentUnavailable:  "The opponent you chose is unavailable.",
	ErrorNoOpponents:          "There are no opponents available.",
	ErrorPlayerGuessedWord:    "Player guessed the word.",
	ErrorYouGuessedWord:       "You guessed the word.",
	ErrorOpponentGaveUp:       "Opponent gave up.",
	ErrorYouGaveUp:            "You gave up.",
	ErrorOpponentDisconnected: "Opponent disconnected.",
}

// Description returns the human-readable text shown to players
func (e ErrorKind) Description() string {
	if int(e) < len(errorDescriptions) {
		return errorDescriptions[e]
	}
	return "Unknown error."
}

func (e ErrorKind) String() string {
	return e.Description()
}

// Message is the unit of communication between client and server.
// Optional fields are nil when absent.
type Message struct {
	Kind Kind

	Password  *string
	SetterID  *string
	GuesserID *string
	Opponents *string // comma-joined player ids
	Word      *string
	Hint      *string

	ErrorKind *ErrorKind

	Status *bool
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value when p is nil
func Value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// LogValue implements slog.LogValuer. The password is never logged.
func (m Message) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("kind", m.Kind.String())}
	if m.Password != nil {
		attrs = append(attrs, slog.String("password", "[redacted]"))
	}
	for _, f := range []struct {
		key string
		val *string
	}{
		{"setter_id", m.SetterID},
		{"guesser_id", m.GuesserID},
		{"opponents", m.Opponents},
		{"word", m.Word},
		{"hint", m.Hint},
	} {
		if f.val != nil {
			attrs = append(attrs, slog.String(f.key, *f.val))
		}
	}
	if m.ErrorKind != nil {
		attrs = append(attrs, slog.Int("error_kind", int(*m.ErrorKind)))
	}
	if m.Status != nil {
		attrs = append(attrs, slog.Bool("status", *m.Status))
	}
	return slog.GroupValue(attrs...)
}

// JoinOpponents builds the opponents field from player ids
func JoinOpponents(ids []string) string {
	return strings.Join(ids, ",")
}

// SplitOpponents parses the opponents field back into player ids
func SplitOpponents(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, ",")
}
