package world

import "sort"

type Sign struct {
	Pos         Vec3i
	Text        string
	UpdatedTick uint64
}

func (w *World) ensureSign(pos Vec3i) *Sign {
	s := w.signs[pos]
	if s != nil {
		s.Pos = pos
		return s
	}
	s = &Sign{Pos: pos}
	w.signs[pos] = s
	return s
}

func (w *World) SignText(pos Vec3i) string {
	s := w.signs[pos]
	if s == nil {
		return ""
	}
	return s.Text
}

func (w *World) SetSignText(pos Vec3i, text string) {
	s := w.ensureSign(pos)
	s.Text = text
	s.UpdatedTick = w.tick
}

func (w *World) removeSign(pos Vec3i) {
	delete(w.signs, pos)
}

func (w *World) SortedSignPositions() []Vec3i {
	out := make([]Vec3i, 0, len(w.signs))
	for p := range w.signs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})
	return out
}
