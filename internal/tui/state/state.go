package state

import "github.com/glabrego/postdeck/internal/content"

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// PageStep is how many list rows a page jump moves for a terminal of the
// given height.
func PageStep(height int, hasStatus bool) int {
	if height <= 0 {
		return 10
	}
	headerLines := 6
	if hasStatus {
		headerLines += 2
	}
	step := height - headerLines
	if step < 3 {
		step = 3
	}
	return step
}

// CenteredWindow returns the [start, end) range of rows to draw so the cursor
// stays near the middle.
func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

// CursorAfterFilter keeps the cursor on the post it was on when that post is
// still visible, otherwise clamps it into range.
func CursorAfterFilter(posts content.Collection, anchorID int64, cursor int) int {
	if i := posts.Index(anchorID); i >= 0 {
		return i
	}
	return ClampCursor(cursor, len(posts))
}

func AnchorID(posts content.Collection, cursor int) int64 {
	if len(posts) == 0 {
		return 0
	}
	return posts[ClampCursor(cursor, len(posts))].ID
}
