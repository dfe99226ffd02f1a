package milonga

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var buenosAires = time.FixedZone("UTC-03:00", -3*60*60)

func page(blocks ...string) []byte {
	var b strings.Builder
	b.WriteString("<html><head><title>Milongas</title></head><body>")
	for _, block := range blocks {
		fmt.Fprintf(&b, `<script type="application/ld+json">%s</script>`, block)
	}
	b.WriteString(`<script>var notLinkedData = {"@type":"DanceEvent"};</script></body></html>`)
	return []byte(b.String())
}

func danceEvent(name, start string) string {
	return fmt.Sprintf(`{"@context":"https://schema.org","@type":"DanceEvent","name":%q,"startDate":%q}`, name, start)
}

func TestExtractTodayAndYesterday(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 10, 18, 21, 0, 0, 0, buenosAires)
	markup := page(
		danceEvent("La Viruta", "2026-10-18T20:00:00-03:00"),
		danceEvent("Salon Canning", "2026-10-17T20:00:00-03:00"),
	)

	res, err := Extract(markup, asOf)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, []string{"La Viruta"}, res.Names)
	require.Zero(t, res.Malformed)
}

func TestExtractNoMatchingEvents(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 10, 18, 12, 0, 0, 0, buenosAires)
	tests := []struct {
		name   string
		markup []byte
	}{
		{name: "no scripts", markup: []byte("<html><body><p>nothing today</p></body></html>")},
		{name: "other types", markup: page(`{"@type":"Event","startDate":"2026-10-18T20:00:00-03:00"}`)},
		{name: "other days", markup: page(danceEvent("Mañana", "2026-10-19T20:00:00-03:00"))},
		{name: "empty document", markup: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Extract(tt.markup, asOf)
			require.NoError(t, err)
			require.Zero(t, res.Count)
		})
	}
}

func TestExtractIsolatesMalformedBlocks(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 10, 18, 9, 0, 0, 0, buenosAires)
	markup := page(
		danceEvent("Uno", "2026-10-18T20:00:00-03:00"),
		`{"@type":"DanceEvent","name":"broken",`,
		danceEvent("Dos", "2026-10-18T22:30:00-03:00"),
		`{"@type":"DanceEvent","name":"no offset","startDate":"2026-10-18T20:00:00"}`,
		`{"@type":"DanceEvent","name":"no date"}`,
		`{"@type":"DanceEvent","startDate":"2026-10-18T21:00:00-03:00"}`,
		`{"@type":"Organization","name":"Hoy Milonga"}`,
		danceEvent("Tres", "2026-10-18T23:59-03:00"),
		"",
	)

	res, err := Extract(markup, asOf)
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)
	require.Equal(t, []string{"Uno", "Dos", "Tres"}, res.Names)
	require.Equal(t, 5, res.Malformed)
}

func TestExtractUnnamedDanceEventIsMalformed(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 10, 18, 9, 0, 0, 0, buenosAires)
	for _, block := range []string{
		`{"@type":"DanceEvent","startDate":"2026-10-18T20:00:00-03:00"}`,
		`{"@type":"DanceEvent","name":42,"startDate":"2026-10-18T20:00:00-03:00"}`,
	} {
		res, err := Extract(page(block), asOf)
		require.NoError(t, err)
		require.Zero(t, res.Count, block)
		require.Equal(t, 1, res.Malformed, block)
	}
}

func TestExtractArrayBlocks(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 10, 18, 9, 0, 0, 0, buenosAires)
	markup := page("[" +
		danceEvent("A", "2026-10-18T20:00:00-03:00") + "," +
		`"not an object",` +
		danceEvent("B", "2026-10-18T21:00:00-03:00") +
		"]")

	res, err := Extract(markup, asOf)
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	require.Equal(t, 1, res.Malformed)
}

func TestExtractTrustsRecordOffset(t *testing.T) {
	t.Parallel()

	// 23:30 at UTC-3 on the 18th is already the 19th in UTC; the record's own
	// calendar date is what counts.
	asOf := time.Date(2026, 10, 18, 23, 0, 0, 0, buenosAires)
	markup := page(
		danceEvent("Late", "2026-10-18T23:30:00-03:00"),
		danceEvent("Utc", "2026-10-19T01:00:00Z"),
	)

	res, err := Extract(markup, asOf)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, []string{"Late"}, res.Names)
}

func TestExtractCountsEveryMatchAmongNoise(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 10, 18, 9, 0, 0, 0, buenosAires)
	for n := 0; n <= 5; n++ {
		var blocks []string
		for i := 0; i < n; i++ {
			blocks = append(blocks,
				danceEvent(fmt.Sprintf("event-%d", i), "2026-10-18T20:00:00-03:00"),
				`{not json}`,
				danceEvent("yesterday", "2026-10-17T20:00:00-03:00"),
			)
		}
		res, err := Extract(page(blocks...), asOf)
		require.NoError(t, err)
		require.Equal(t, n, res.Count, "n=%d", n)
		require.Equal(t, n, res.Malformed, "n=%d", n)
	}
}
