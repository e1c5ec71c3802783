package duel

// Config holds the game rules
type Config struct {
	// GiveUpWord is the guess that forfeits a match
	GiveUpWord string
	// MaxAttempts is the number of wrong guesses after which the setter is asked for a hint
	MaxAttempts int
	// ResultsLimit bounds how many results a snapshot returns
	ResultsLimit int
}

// DefaultConfig returns the default game rules
func DefaultConfig() Config {
	return Config{
		GiveUpWord:   "I give up",
		MaxAttempts:  3,
		ResultsLimit: 50,
	}
}
