package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fortuna/clueboard/internal/archive"
)

func sampleTranscript() archive.Transcript {
	return archive.Transcript{
		URL: "https://j-archive.com/showgame.php?game_id=42",
		Rounds: []archive.Round{
			{
				Kind: archive.BoardRoundFirst,
				Categories: []archive.Category{{
					Name: "Q&A <TAGS>",
					Clues: []archive.Clue{{
						Text:   "Café owner's \"special\"",
						Answer: "espresso",
						Outcome: &archive.Outcome{
							Value:            "$400",
							RightContestants: []string{},
							WrongContestants: []string{archive.TripleStumper},
						},
					}},
				}},
			},
			{
				Kind: archive.FinalRound,
				Categories: []archive.Category{{
					Name:  "F",
					Clues: []archive.Clue{{Text: "fc", Answer: "fa"}},
				}},
			},
		},
	}
}

func TestEncodeFormat(t *testing.T) {
	data, err := Encode(archive.Transcript{URL: "u"})
	require.NoError(t, err)
	require.Equal(t, "{\n    \"url\": \"u\",\n    \"rounds\": []\n}\n", string(data))

	data, err = Encode(sampleTranscript())
	require.NoError(t, err)
	require.Contains(t, string(data), `"Q&A <TAGS>"`)
	require.Contains(t, string(data), `Café owner's \"special\"`)
	require.NotContains(t, string(data), `\u0026`)
	require.True(t, strings.HasSuffix(string(data), "}\n"))
}

func TestWriteAndLoad(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	path, err := w.Write(sampleTranscript(), "41", "9001")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "41", "9001.json"), path)

	result := w.Load("41", "9001")
	require.True(t, result.OK(), "reason: %v", result.Reason)
	require.Equal(t, sampleTranscript(), result.Transcript)
}

func TestWriteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	path, err := w.Write(sampleTranscript(), "41", "9001")
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = w.Write(sampleTranscript(), "41", "9001")
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Join(root, "41"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteRejectsInvalidIDs(t *testing.T) {
	w := NewWriter(t.TempDir())

	for _, id := range []string{"", "  ", "..", "a/b", `a\b`} {
		_, err := w.Write(sampleTranscript(), id, "1")
		require.ErrorIs(t, err, ErrInvalidID, "season %q", id)

		_, err = w.Write(sampleTranscript(), "1", id)
		require.ErrorIs(t, err, ErrInvalidID, "game %q", id)
	}
}

func TestLoadStatuses(t *testing.T) {
	root := t.TempDir()

	missing := Load(filepath.Join(root, "nope.json"))
	require.Equal(t, StatusUnreadable, missing.Status)
	require.True(t, missing.IsNotExist())

	bad := filepath.Join(root, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"url": "u", "rounds": [`), 0o644))
	malformed := Load(bad)
	require.Equal(t, StatusMalformed, malformed.Status)
	require.Error(t, malformed.Reason)
	require.Empty(t, malformed.Transcript.Rounds)

	noRounds := filepath.Join(root, "norounds.json")
	require.NoError(t, os.WriteFile(noRounds, []byte(`{"url": "u"}`), 0o644))
	require.Equal(t, StatusMalformed, Load(noRounds).Status)

	unknownRound := filepath.Join(root, "unknown.json")
	require.NoError(t, os.WriteFile(unknownRound, []byte(`{"url":"u","rounds":[{"name":"x","categories":[]}]}`), 0o644))
	require.Equal(t, StatusMalformed, Load(unknownRound).Status)
}

func TestScanSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	_, err := w.Write(sampleTranscript(), "40", "100")
	require.NoError(t, err)
	_, err = w.Write(archive.Transcript{URL: "u"}, "41", "200")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "41", "150.json"), []byte("not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "41", "notes.txt"), []byte("ignored"), 0o644))

	results, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, results, 3)

	var ok, malformed int
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			ok++
		case StatusMalformed:
			malformed++
			require.Equal(t, filepath.Join(root, "41", "150.json"), r.Path)
		}
	}
	require.Equal(t, 2, ok)
	require.Equal(t, 1, malformed)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestSeasonsAndGames(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	for _, g := range []struct{ season, game string }{{"41", "9002"}, {"41", "9001"}, {"40", "8000"}} {
		_, err := w.Write(archive.Transcript{URL: "u"}, g.season, g.game)
		require.NoError(t, err)
	}

	seasons, err := Seasons(root)
	require.NoError(t, err)
	require.Equal(t, []string{"40", "41"}, seasons)

	games, err := Games(root, "41")
	require.NoError(t, err)
	require.Equal(t, []string{"9001", "9002"}, games)

	_, err = Games(root, "99")
	require.Error(t, err)

	_, err = Games(root, "../x")
	require.ErrorIs(t, err, ErrInvalidID)

	empty, err := Seasons(filepath.Join(root, "missing"))
	require.NoError(t, err)
	require.Empty(t, empty)
}
