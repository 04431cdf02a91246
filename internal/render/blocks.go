// Package render adapts a two-dimensional result set into the two
// presentation formats the service exposes: raw tabular rows and a Slack
// Block Kit message.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/slack-go/slack"

	"github.com/clinsight/clinsight/pkg/models"
)

// ErrNoData signals an empty result set. It is a normal outcome, not a
// defect: callers post a "no data" notice instead of an empty layout.
var ErrNoData = errors.New("no data to render")

// RenderError reports a result set whose shape is malformed: a row with no
// fields. Distinct from ErrNoData, which is expected.
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render result: %s", e.Reason)
}

// timestampLayouts are tried in order when a date-named text field needs
// parsing. Postgres text output and ISO 8601 cover what the views emit.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// BlockMessage converts a non-empty result set into section blocks separated
// by dividers: one section per row, one formatted field per projected column,
// in projection order. Rows are rendered independently, each with its own
// field set, so a query that projects different columns per row still
// produces a usable message.
func BlockMessage(rs models.ResultSet) ([]slack.Block, error) {
	// A nil set counts as empty, not malformed: zero-row queries are a
	// normal outcome however the runner spells them.
	if len(rs) == 0 {
		return nil, ErrNoData
	}

	blocks := make([]slack.Block, 0, 2*len(rs)-1)
	for i, row := range rs {
		if len(row) == 0 {
			return nil, &RenderError{Reason: fmt.Sprintf("row %d has no fields", i)}
		}
		if i > 0 {
			blocks = append(blocks, slack.NewDividerBlock())
		}

		fields := make([]*slack.TextBlockObject, 0, len(row))
		for _, f := range row {
			text := fmt.Sprintf("*%s:*\n%s", humanLabel(f.Name), fieldText(f))
			fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, text, false, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	return blocks, nil
}

// fieldText renders one cell. Timestamp-tagged values become Slack date
// tokens so each reader sees their own timezone. Text values under a
// date/time-ish name get a parse attempt as a fallback for untagged sources;
// if parsing fails the raw string is used and rendering continues.
func fieldText(f models.Field) string {
	switch {
	case f.Value.Kind == models.KindTimestamp:
		return dateToken(f.Value.Time, f.Value.String())
	case f.Value.Kind == models.KindText && looksLikeDate(f.Name):
		if t, ok := parseTimestamp(f.Value.Text); ok {
			return dateToken(t, f.Value.Text)
		}
		return f.Value.Text
	default:
		return f.Value.String()
	}
}

// dateToken embeds epoch seconds in a Slack date token, keeping the raw
// value as fallback text for clients that cannot expand the token.
func dateToken(t time.Time, raw string) string {
	return fmt.Sprintf("<!date^%d^{date_num} {time_secs}|%s>", t.Unix(), raw)
}

func looksLikeDate(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// humanLabel turns a column name into a display label: separators become
// spaces and each word is title-cased, so public_patient_id reads as
// "Public Patient Id".
func humanLabel(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
