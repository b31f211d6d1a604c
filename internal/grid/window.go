package grid

// Window returns the [start, end) slice of view positions to materialize for
// a viewport of height rows scrolled to offset. The offset is clamped so the
// window never runs past either end.
func (g *Grid[R]) Window(offset, height int) (start, end int) {
	return window(len(g.view), offset, height)
}

func window(total, offset, height int) (int, int) {
	if total == 0 || height <= 0 {
		return 0, 0
	}
	if height > total {
		height = total
	}
	maxOffset := total - height
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset, offset + height
}

// ScrollTo returns the offset that keeps cursor inside a viewport of height
// rows, moving the current offset as little as possible.
func ScrollTo(cursor, offset, height, total int) int {
	if height <= 0 || total == 0 {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	start, _ := window(total, offset, height)
	return start
}
