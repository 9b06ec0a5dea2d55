package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"scriptures/mapped/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Positions of the fields inside a showLocation(...) call.
const (
	fieldID = iota + 1
	fieldPlaceName
	fieldLatitude
	fieldLongitude
	fieldViewLatitude
	fieldViewLongitude
	fieldViewTilt
	fieldViewRoll
	fieldViewAltitude
	fieldViewHeading
	fieldFlag
)

const geotagSelector = `a[onclick^="showLocation("]`

var (
	quoted    = `'((?:[^'\\]|\\.)*)'`
	number    = `\s*(-?[0-9]+(?:\.[0-9]+)?)\s*`
	geotagRe  = regexp.MustCompile(`^\s*showLocation\(\s*([0-9]+)\s*,\s*` + quoted + `\s*,` + strings.Repeat(number+",", 8) + `\s*` + quoted + `\s*\)`)
	unescaper = strings.NewReplacer(`\'`, `'`, `\\`, `\`)
)

type geotagParser struct{}

func newGeotagParser() *geotagParser {
	return &geotagParser{}
}

// ParseChapter extracts every geotag link from chapter markup. Links whose
// onclick does not match the positional pattern are skipped.
func (p *geotagParser) ParseChapter(html string, bookID, chapter int) (*domain.ChapterContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := &domain.ChapterContent{
		BookID:  bookID,
		Chapter: chapter,
		Markup:  html,
		Geotags: make([]domain.Geotag, 0),
	}

	skipped := 0
	doc.Find(geotagSelector).Each(func(i int, link *goquery.Selection) {
		onclick, exists := link.Attr("onclick")
		if !exists {
			return
		}

		geotag, err := ParseGeotag(onclick)
		if err != nil {
			skipped++
			log.Warnf("⚠️ Skipping geotag link %d in %d:%d: %v", i, bookID, chapter, err)
			return
		}

		content.Geotags = append(content.Geotags, geotag)
	})

	log.Debugf("Extracted %d geotags from %d:%d (%d skipped)", len(content.Geotags), bookID, chapter, skipped)
	return content, nil
}

// ParseGeotag decodes one showLocation(...) call.
func ParseGeotag(call string) (domain.Geotag, error) {
	matches := geotagRe.FindStringSubmatch(call)
	if len(matches) <= fieldFlag {
		return domain.Geotag{}, fmt.Errorf("unexpected geotag format: %q", call)
	}

	id, err := strconv.Atoi(matches[fieldID])
	if err != nil {
		return domain.Geotag{}, fmt.Errorf("invalid geotag id %q: %w", matches[fieldID], err)
	}

	floats := make([]float64, 0, fieldViewHeading-fieldLatitude+1)
	for i := fieldLatitude; i <= fieldViewHeading; i++ {
		f, err := strconv.ParseFloat(matches[i], 64)
		if err != nil {
			return domain.Geotag{}, fmt.Errorf("invalid geotag field %d %q: %w", i, matches[i], err)
		}
		floats = append(floats, f)
	}

	return domain.Geotag{
		ID:            id,
		PlaceName:     unescaper.Replace(matches[fieldPlaceName]),
		Latitude:      floats[0],
		Longitude:     floats[1],
		ViewLatitude:  floats[2],
		ViewLongitude: floats[3],
		ViewTilt:      floats[4],
		ViewRoll:      floats[5],
		ViewAltitude:  floats[6],
		ViewHeading:   floats[7],
		Flag:          unescaper.Replace(matches[fieldFlag]),
	}, nil
}

// GeotagFromFields builds a geotag from the positional fields a geotag click
// reports, in the same order as the markup encodes them.
func GeotagFromFields(fields []string) (domain.Geotag, error) {
	if len(fields) < fieldViewHeading {
		return domain.Geotag{}, fmt.Errorf("expected at least %d geotag fields, got %d", fieldViewHeading, len(fields))
	}

	quote := func(s string) string {
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
	}

	flag := ""
	if len(fields) > fieldViewHeading {
		flag = fields[fieldFlag-1]
	}

	parts := make([]string, 0, fieldFlag)
	parts = append(parts, strings.TrimSpace(fields[fieldID-1]), quote(fields[fieldPlaceName-1]))
	for i := fieldLatitude; i <= fieldViewHeading; i++ {
		parts = append(parts, strings.TrimSpace(fields[i-1]))
	}
	parts = append(parts, quote(flag))

	return ParseGeotag("showLocation(" + strings.Join(parts, ",") + ")")
}
