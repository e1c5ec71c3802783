package protocol

// Builders for every message kind, populating exactly the fields each kind carries.

func RequestPassword() Message {
	return Message{Kind: KindRequestPassword}
}

func SendPassword(password string) Message {
	return Message{Kind: KindSendPassword, Password: &password}
}

func InvalidPassword() Message {
	return Message{Kind: KindInvalidPassword, ErrorKind: Ptr(ErrorInvalidPassword)}
}

func ValidPassword(playerID string) Message {
	return Message{Kind: KindValidPassword, SetterID: &playerID}
}

func RequestOpponents(playerID string) Message {
	return Message{Kind: KindRequestOpponents, SetterID: &playerID}
}

func OpponentsList(ids []string) Message {
	return Message{Kind: KindOpponentsList, Opponents: Ptr(JoinOpponents(ids))}
}

func NoOpponents() Message {
	return Message{Kind: KindNoOpponents, ErrorKind: Ptr(ErrorNoOpponents)}
}

func RequestMatch(setterID, guesserID, word string) Message {
	return Message{Kind: KindRequestMatch, SetterID: &setterID, GuesserID: &guesserID, Word: &word}
}

func RejectMatch(ids []string, reason ErrorKind) Message {
	return Message{Kind: KindRejectMatch, Opponents: Ptr(JoinOpponents(ids)), ErrorKind: &reason}
}

func RequestWord(setterID string) Message {
	return Message{Kind: KindRequestWord, SetterID: &setterID}
}

func CheckWord(guesserID, setterID, word string) Message {
	return Message{Kind: KindCheckWord, GuesserID: &guesserID, SetterID: &setterID, Word: &word}
}

func InformAttempt(word string) Message {
	return Message{Kind: KindInformAttempt, Word: &word}
}

func RequestHint(setterID, guesserID string) Message {
	return Message{Kind: KindRequestHint, SetterID: &setterID, GuesserID: &guesserID}
}

func SendHint(guesserID, hint string) Message {
	return Message{Kind: KindSendHint, GuesserID: &guesserID, Hint: &hint}
}

func ShowHint(setterID, hint string) Message {
	return Message{Kind: KindShowHint, SetterID: &setterID, Hint: &hint}
}

// EndMatch reports a concluded match without revealing the word
func EndMatch(status bool, reason ErrorKind) Message {
	return Message{Kind: KindSendEndMatch, Status: &status, ErrorKind: &reason}
}

// EndMatchReveal reports a lost match to the guesser along with the secret word
func EndMatchReveal(reason ErrorKind, word string) Message {
	m := EndMatch(false, reason)
	m.Word = &word
	return m
}
