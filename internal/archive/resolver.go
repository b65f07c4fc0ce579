package archive

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Response is the resolved answer data for a board clue.
type Response struct {
	CorrectResponse string
	Right           []string
	Wrong           []string
}

func emptyResponse() Response {
	return Response{Right: []string{}, Wrong: []string{}}
}

// ResolveResponse finds the companion node of a clue-text node and reads the
// correct response and contestant outcomes from it.
//
// The companion is the element whose id is the clue's id followed by suffix,
// looked up anywhere in doc. Any missing piece yields an empty value.
func ResolveResponse(clueText *goquery.Selection, doc *goquery.Document, suffix string) Response {
	resp := emptyResponse()
	if clueText == nil || doc == nil {
		return resp
	}

	id, ok := clueText.Attr("id")
	if !ok || id == "" {
		return resp
	}

	companion := doc.Find(fmt.Sprintf("[id=%q]", id+suffix)).First()
	if companion.Length() == 0 {
		return resp
	}

	resp.CorrectResponse = text(companion.Find("em.correct_response").First())

	companion.Find("td.right").Each(func(_ int, s *goquery.Selection) {
		resp.Right = append(resp.Right, text(s))
	})
	companion.Find("td.wrong").Each(func(_ int, s *goquery.Selection) {
		resp.Wrong = append(resp.Wrong, text(s))
	})

	return resp
}
