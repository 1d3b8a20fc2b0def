// internal/room/tally.go
package room

import "github.com/jason-s-yu/impostor/internal/protocol"

// tally is a count map that remembers the order in which keys first appeared.
// A key whose count drops to zero is removed, so a later vote re-appends it at the end.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) inc(key string) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// dec removes one vote from key. Decrementing an absent key does nothing.
func (t *tally) dec(key string) {
	n, ok := t.counts[key]
	if !ok {
		return
	}
	if n > 1 {
		t.counts[key] = n - 1
		return
	}
	delete(t.counts, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *tally) count(key string) int {
	return t.counts[key]
}

func (t *tally) total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// plurality scans keys in first-appearance order. A strictly greater count takes the lead
// and clears the tie flag; an equal non-zero count marks a tie. An empty tally yields no leader.
func (t *tally) plurality() (leader string, tie bool) {
	best := 0
	for _, k := range t.order {
		c := t.counts[k]
		switch {
		case c > best:
			best, leader, tie = c, k, false
		case c == best && best > 0:
			tie = true
		}
	}
	return leader, tie
}

func (t *tally) entries() []protocol.TallyEntry {
	out := make([]protocol.TallyEntry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, protocol.TallyEntry{PlayerID: k, Votes: t.counts[k]})
	}
	return out
}

// ballots pairs a tally with each voter's current choice so a re-cast moves one vote
// instead of adding a second one.
type ballots struct {
	tally   *tally
	choices map[string]string
}

func newBallots() *ballots {
	return &ballots{tally: newTally(), choices: make(map[string]string)}
}

// cast records voter's choice and reports whether anything changed.
func (b *ballots) cast(voter, choice string) bool {
	prev, had := b.choices[voter]
	if had && prev == choice {
		return false
	}
	if had {
		b.tally.dec(prev)
	}
	b.tally.inc(choice)
	b.choices[voter] = choice
	return true
}

func (b *ballots) voted() int {
	return len(b.choices)
}
