package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var byWordRegex = regexp.MustCompile(`\bby\b`)

// forgeListStrategy parses the featured-content list layout: a forge list of
// player cards where the heading carries the player name and the descriptive
// text carries one or more "<song> by <artist>" entries.
type forgeListStrategy struct{}

func (forgeListStrategy) name() string { return "forge-list" }

func (forgeListStrategy) extract(doc *goquery.Document) ExtractionResult {
	result := make(ExtractionResult)

	doc.Find("div.p-forge-list div.p-featured-content__body").Each(func(i int, entry *goquery.Selection) {
		player := strings.TrimSpace(entry.Find("div.u-text-h4").First().Text())
		if player == "" {
			return
		}

		text := entry.Find("div.p-featured-content__text").First().Find("p, span").First()
		if text.Length() == 0 {
			return
		}

		songs := parseForgeSongText(text)
		for _, song := range songs {
			result.addSong(player, song)
		}
	})

	return result
}

// parseForgeSongText tries the three observed shapes of the descriptive text
// in order: delimiter-split spans, anchors with emphasized titles, and a
// plain-text fallback.
func parseForgeSongText(text *goquery.Selection) []Song {
	var songs []Song

	text.Find("span").Each(func(i int, span *goquery.Selection) {
		if name, artist, ok := splitOnBy(strings.TrimSpace(span.Text())); ok && name != "" {
			songs = appendUnique(songs, Song{Name: name, Artist: artist})
		}
	})
	if len(songs) > 0 {
		return songs
	}

	text.Find("a").Each(func(i int, anchor *goquery.Selection) {
		em := anchor.Find("em").First()
		if em.Length() == 0 {
			return
		}
		name := strings.TrimSpace(em.Text())
		if name == "" {
			return
		}
		artist := strings.TrimSpace(nextSiblingText(anchor))
		artist = strings.TrimSpace(strings.TrimPrefix(artist, "by "))
		songs = appendUnique(songs, Song{Name: name, Artist: artist})
	})
	if len(songs) > 0 {
		return songs
	}

	// Last resort: strip all markup, treat the emphasized child as the song
	// title and whatever text remains, minus the word "by", as the artist.
	em := text.Find("em, i").First()
	if em.Length() > 0 {
		name := strings.TrimSpace(em.Text())
		if name != "" {
			rest := strings.Replace(text.Text(), em.Text(), "", 1)
			rest = byWordRegex.ReplaceAllString(rest, "")
			artist := strings.Join(strings.Fields(rest), " ")
			songs = appendUnique(songs, Song{Name: name, Artist: artist})
		}
	}

	return songs
}

// nextSiblingText returns the text node immediately following a selection.
func nextSiblingText(sel *goquery.Selection) string {
	node := sel.Get(0)
	if node == nil || node.NextSibling == nil {
		return ""
	}
	if node.NextSibling.Type == html.TextNode {
		return node.NextSibling.Data
	}
	return ""
}

func appendUnique(songs []Song, song Song) []Song {
	for _, existing := range songs {
		if existing == song {
			return songs
		}
	}
	return append(songs, song)
}

// walkupWidgetStrategy parses the tabular walkup-music widget: player rows
// outside any selected/underlined UI state, names split across super-name and
// name tags, and repeated song-content cells per player.
type walkupWidgetStrategy struct{}

func (walkupWidgetStrategy) name() string { return "walkup-widget" }

func (walkupWidgetStrategy) extract(doc *goquery.Document) ExtractionResult {
	result := make(ExtractionResult)

	table := doc.Find(`div[data-testid="player-walkup-music"]`).First().Find("table").First()
	if table.Length() == 0 {
		return result
	}

	table.Find(`tr[data-selected="false"][data-underlined="false"]`).Each(func(i int, row *goquery.Selection) {
		firstName := strings.TrimSpace(row.Find(`div[data-testid*="spot-tag__super-name"]`).First().Text())
		lastName := strings.TrimSpace(row.Find(`div[data-testid*="spot-tag__name"]`).First().Text())
		if firstName == "" && lastName == "" {
			return
		}
		player := strings.TrimSpace(firstName + " " + lastName)

		row.Find(`div[data-testid^="player-walkup-music-song-content-"]`).Each(func(j int, cell *goquery.Selection) {
			name := strings.TrimSpace(cell.Find("div.player-walkup-music__song--content--songname").First().Text())
			artist := strings.TrimSpace(cell.Find("div.player-walkup-music__song--content--artistname").First().Text())
			if name == "" || artist == "" {
				return
			}
			result.addSong(player, Song{Name: name, Artist: artist})
		})
	})

	return result
}

// plainTableStrategy is the simple-table fallback: any table whose header row
// names PLAYER and SONG columns (ARTIST optional). A player spanning several
// rows lists the name once, so empty player cells inherit the previous one.
type plainTableStrategy struct{}

func (plainTableStrategy) name() string { return "plain-table" }

func (plainTableStrategy) extract(doc *goquery.Document) ExtractionResult {
	result := make(ExtractionResult)

	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		playerCol, songCol, artistCol := headerColumns(table)
		if playerCol < 0 || songCol < 0 {
			return true
		}

		lastPlayer := ""
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			if j == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() <= songCol {
				return
			}

			player := strings.TrimSpace(cells.Eq(playerCol).Text())
			if player == "" {
				player = lastPlayer
			} else {
				lastPlayer = player
			}

			name := strings.TrimSpace(cells.Eq(songCol).Text())
			if player == "" || name == "" {
				return
			}

			artist := ""
			if artistCol >= 0 && cells.Length() > artistCol {
				artist = strings.TrimSpace(cells.Eq(artistCol).Text())
			}

			result.addSong(player, Song{Name: name, Artist: artist})
		})

		// Stop at the first table with a matching header that produced rows.
		return len(result) == 0
	})

	return result
}

// headerColumns locates the PLAYER, SONG and optional ARTIST columns
// (case-insensitive) in a table's header row. Missing columns return -1.
func headerColumns(table *goquery.Selection) (int, int, int) {
	playerCol, songCol, artistCol := -1, -1, -1

	header := table.Find("tr").First()
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		switch strings.ToUpper(strings.TrimSpace(cell.Text())) {
		case "PLAYER":
			playerCol = i
		case "SONG":
			songCol = i
		case "ARTIST":
			artistCol = i
		}
	})

	return playerCol, songCol, artistCol
}
