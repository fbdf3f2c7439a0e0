package deck

// BestHandValue computes the highest blackjack value of a hand that does not
// bust, or the minimal bust value when no ace demotion can save it.
//
// Every ace is first counted as 11; while the total exceeds 21 and an ace is
// still counted high, one ace is demoted to 1 (subtract 10). Bust and
// blackjack determination depend on this exact two-pass behaviour.
func BestHandValue(cards []Card) int {
	score := 0
	aces := 0
	for _, c := range cards {
		if c.IsAce() {
			aces++
		}
		score += c.PipValue()
	}
	for score > 21 && aces > 0 {
		score -= 10
		aces--
	}
	return score
}

// IsBlackjack reports whether the hand is a natural: exactly two cards
// totalling 21.
func IsBlackjack(cards []Card) bool {
	return len(cards) == 2 && BestHandValue(cards) == 21
}
