package block

import "github.com/FocuswithJustin/WindevClarify/core/phrase"

// scopeEnd returns the view position where the sibling scope of anchor ends:
// the first later key line of smaller indent, or the first dash marker of
// smaller indent, which opens the next entry of the enclosing list.
func scopeEnd(doc *phrase.Document, view []phrase.Line, anchor int) int {
	indent := doc.Phrase(anchor).Indent
	for pos := doc.HeadPos(anchor) + 1; pos < len(view); pos++ {
		l := view[pos]
		if l.IsHead() {
			if doc.Phrase(l.Phrase).Indent < indent {
				return pos
			}
			continue
		}
		if d, ok := phrase.DashMarker(l.Text); ok && d < indent {
			return pos
		}
	}
	return len(view)
}

// FindSibling returns the first phrase after anchor keyed key (case-sensitive)
// at exactly the anchor's indent, within the anchor's enclosing entry.
func FindSibling(doc *phrase.Document, anchor int, key string) (int, bool) {
	if anchor < 0 || anchor >= doc.Len() {
		return -1, false
	}
	view := doc.View()
	end := scopeEnd(doc, view, anchor)
	indent := doc.Phrase(anchor).Indent
	for j := anchor + 1; j < doc.Len() && doc.HeadPos(j) < end; j++ {
		p := doc.Phrase(j)
		if p.Indent == indent && p.Key == key {
			return j, true
		}
	}
	return -1, false
}

// EnclosingBlock returns the entry of sec that contains phrase i.
func EnclosingBlock(doc *phrase.Document, sec Section, i int) (Block, bool) {
	for _, b := range SegmentSection(doc, sec) {
		if i >= b.First && i < b.Last {
			return b, true
		}
	}
	return Block{}, false
}
