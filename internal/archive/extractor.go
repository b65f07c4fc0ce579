package archive

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns parsed archive pages into links and transcripts.
type Extractor struct {
	cfg Config
}

// NewExtractor validates cfg and returns an Extractor using it.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid archive config: %w", err)
	}
	return &Extractor{cfg: cfg}, nil
}

// Config returns the layout the extractor was built with.
func (e *Extractor) Config() Config {
	return e.cfg
}

// SeasonLinks lists the season pages linked from the index page.
func (e *Extractor) SeasonLinks(doc *goquery.Document) []string {
	if doc == nil {
		return []string{}
	}
	return DiscoverLinks(doc.Selection, e.cfg.SeasonLinkPrefix, e.cfg.BaseURL)
}

// GameLinks lists the game pages linked from a season page.
func (e *Extractor) GameLinks(doc *goquery.Document) []string {
	if doc == nil {
		return []string{}
	}
	return DiscoverLinks(doc.Selection, e.cfg.GameLinkPrefix, e.cfg.BaseURL)
}

// ExtractGame builds the transcript of one game page. Rounds missing from
// the page are left out of the result.
func (e *Extractor) ExtractGame(doc *goquery.Document, url string) Transcript {
	transcript := Transcript{URL: url, Rounds: []Round{}}
	if doc == nil {
		return transcript
	}

	for _, kind := range RoundKinds {
		container := doc.Find(fmt.Sprintf("div[id=%q]", kind.ID())).First()
		if container.Length() == 0 {
			continue
		}

		switch kind {
		case BoardRoundFirst, BoardRoundSecond:
			transcript.Rounds = append(transcript.Rounds, e.extractBoard(kind, container, doc))
		case FinalRound:
			transcript.Rounds = append(transcript.Rounds, ExtractFinal(container))
		}
	}

	return transcript
}

func (e *Extractor) extractBoard(kind RoundKind, container *goquery.Selection, doc *goquery.Document) Round {
	headers := container.Find("td.category_name")
	cells := container.Find("td.clue")

	flat := make([]*goquery.Selection, cells.Length())
	cells.Each(func(i int, s *goquery.Selection) {
		flat[i] = s
	})

	grid := ReconstructGrid(headers.Length(), e.cfg.Rows, flat)

	round := Round{Kind: kind, Categories: make([]Category, 0, len(grid))}
	headers.Each(func(i int, header *goquery.Selection) {
		category := Category{Name: text(header), Clues: []Clue{}}
		for _, cell := range grid[i] {
			clue, ok := e.extractClue(cell.Value, doc)
			if !ok {
				continue
			}
			category.Clues = append(category.Clues, clue)
		}
		round.Categories = append(round.Categories, category)
	})

	return round
}

// extractClue reads one board cell. Cells without clue text are unrevealed
// clues and are skipped.
func (e *Extractor) extractClue(cell *goquery.Selection, doc *goquery.Document) (Clue, bool) {
	clueText := cell.Find("td.clue_text").First()
	if clueText.Length() == 0 {
		return Clue{}, false
	}

	resp := ResolveResponse(clueText, doc, e.cfg.ResponseSuffix)

	return Clue{
		Text:   text(clueText),
		Answer: resp.CorrectResponse,
		Outcome: &Outcome{
			Value:            text(cell.Find(".clue_value, .clue_value_daily_double").First()),
			RightContestants: resp.Right,
			WrongContestants: resp.Wrong,
		},
	}, true
}
