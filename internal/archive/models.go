package archive

import (
	"fmt"
	"slices"
)

// RoundKind identifies one of the three rounds of a game.
type RoundKind int

const (
	BoardRoundFirst RoundKind = iota
	BoardRoundSecond
	FinalRound
)

// RoundKinds lists every round in page order.
var RoundKinds = []RoundKind{BoardRoundFirst, BoardRoundSecond, FinalRound}

// ID returns the container id used by the game page, which is also the
// round name persisted in artifacts.
func (k RoundKind) ID() string {
	switch k {
	case BoardRoundFirst:
		return "jeopardy_round"
	case BoardRoundSecond:
		return "double_jeopardy_round"
	case FinalRound:
		return "final_jeopardy_round"
	}
	return ""
}

func (k RoundKind) String() string {
	if id := k.ID(); id != "" {
		return id
	}
	return fmt.Sprintf("RoundKind(%d)", int(k))
}

// IsBoard reports whether the round is laid out as a category grid.
func (k RoundKind) IsBoard() bool {
	return k == BoardRoundFirst || k == BoardRoundSecond
}

func (k RoundKind) MarshalText() ([]byte, error) {
	id := k.ID()
	if id == "" {
		return nil, fmt.Errorf("unknown round kind %d", int(k))
	}
	return []byte(id), nil
}

func (k *RoundKind) UnmarshalText(text []byte) error {
	kind, err := ParseRoundKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseRoundKind maps a persisted round name back to its kind.
func ParseRoundKind(name string) (RoundKind, error) {
	for _, kind := range RoundKinds {
		if kind.ID() == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown round name %q", name)
}

// Transcript is the extracted record of one game page.
type Transcript struct {
	URL    string  `json:"url"`
	Rounds []Round `json:"rounds"`
}

// Round holds the categories of one round in left-to-right column order.
type Round struct {
	Kind       RoundKind  `json:"name"`
	Categories []Category `json:"categories"`
}

// Category holds its clues in top-to-bottom row order.
type Category struct {
	Name  string `json:"name"`
	Clues []Clue `json:"clues"`
}

// Clue is a single clue and its correct response. Board clues carry an
// Outcome; final round clues leave it nil so the board-only fields are
// absent from the encoded artifact.
type Clue struct {
	Text   string `json:"clue"`
	Answer string `json:"answer"`
	*Outcome
}

// Outcome is the board-only part of a clue.
type Outcome struct {
	Value            string   `json:"value"`
	RightContestants []string `json:"right_contestants"`
	WrongContestants []string `json:"wrong_contestants"`
}

// TripleStumper is the marker the archive uses in place of a contestant
// name when nobody responded correctly.
const TripleStumper = "Triple Stumper"

// Round returns the round of the given kind, if present.
func (t Transcript) Round(kind RoundKind) (Round, bool) {
	for _, r := range t.Rounds {
		if r.Kind == kind {
			return r, true
		}
	}
	return Round{}, false
}

// ClueCount returns the number of clues across all rounds.
func (t Transcript) ClueCount() int {
	total := 0
	for _, r := range t.Rounds {
		for _, c := range r.Categories {
			total += len(c.Clues)
		}
	}
	return total
}

// TripleStumpers counts board clues nobody answered correctly.
func (t Transcript) TripleStumpers() int {
	total := 0
	for _, r := range t.Rounds {
		for _, c := range r.Categories {
			for _, clue := range c.Clues {
				if clue.Outcome != nil && slices.Contains(clue.WrongContestants, TripleStumper) {
					total++
				}
			}
		}
	}
	return total
}
