package archive

import "github.com/PuerkitoBio/goquery"

// ExtractFinal reads the single-category, single-clue final round. There is
// no grid here: the first header, clue text and correct response found
// under the container are used, each defaulting to empty.
func ExtractFinal(round *goquery.Selection) Round {
	var name, clue, answer string
	if round != nil {
		name = text(round.Find("td.category_name").First())
		clue = text(round.Find("td.clue_text").First())
		answer = text(round.Find("em.correct_response").First())
	}

	return Round{
		Kind: FinalRound,
		Categories: []Category{{
			Name:  name,
			Clues: []Clue{{Text: clue, Answer: answer}},
		}},
	}
}
