// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/util"
)

// =============================================================================
// LINE FORMATTING
// =============================================================================

// TimeLayout is how published times are shown.
const TimeLayout = "2006-01-02 15:04"

// separator joins the columns of an activity or relation line.
const separator = " | "

// Page is a full-screen view: a title line followed by body lines. Lines are
// plain text; styling is applied when drawn.
type Page struct {
	Title string
	Lines []string
}

// formatTime renders t in the local zone, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimeLayout)
}

// joinColumns joins the non-empty columns with the separator.
func joinColumns(cols ...string) string {
	kept := cols[:0]
	for _, c := range cols {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, separator)
}

// ActivityLine formats one entry as "published | actor | text".
func ActivityLine(e *model.ActivityEntry) string {
	return util.SanitizeLine(joinColumns(formatTime(e.Published), e.Actor, e.Text()))
}

// InboxPage numbers the entries from 1, the positions the content commands
// take, and shows the reply count of entries that have replies.
func InboxPage(entries []*model.ActivityEntry) Page {
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		prefix := fmt.Sprintf("(%d) ", i+1)
		if e.HasReplies() {
			prefix += fmt.Sprintf("(Replies : %d) ", e.ReplyCount)
		}
		lines = append(lines, prefix+ActivityLine(e))
	}
	return Page{Lines: lines}
}

// ActivitiesPage lists entries under title without positions.
func ActivitiesPage(title string, entries []*model.ActivityEntry) Page {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, ActivityLine(e))
	}
	return Page{Title: util.SanitizeLine(title), Lines: lines}
}

// RelationsPage shows each relation as a header line followed by its
// nature, status, message and id when present.
func RelationsPage(relations []*model.Relation) Page {
	var lines []string
	for _, r := range relations {
		lines = append(lines, util.SanitizeLine(joinColumns(formatTime(r.Published), r.From, r.To)))
		for _, kv := range [][2]string{
			{"Nature", r.Nature},
			{"Status", r.Status},
			{"Message", r.Message},
			{"Id", r.ID},
		} {
			if kv[1] != "" {
				lines = append(lines, kv[0]+": "+util.SanitizeLine(kv[1]))
			}
		}
	}
	return Page{Lines: lines}
}

// ProfilePage shows "key: value" for every field, in profile order.
func ProfilePage(p *model.Profile) Page {
	lines := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		lines = append(lines, string(f.Key)+": "+util.SanitizeLine(f.Value))
	}
	return Page{Title: "Profile of " + util.SanitizeLine(p.UserID), Lines: lines}
}

// ListPage shows items under title.
func ListPage(title string, items []string) Page {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = util.SanitizeLine(item)
	}
	return Page{Title: util.SanitizeLine(title), Lines: lines}
}
