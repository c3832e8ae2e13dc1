package sim

// verify checks the post-step invariants. Static-static overlaps are part of
// the configured layout and are not reported.
func (e *Engine) verify() error {
	for _, o := range e.objects {
		if !o.Pos.IsFinite() || !o.Vel.IsFinite() {
			return invariantErrorf(e.tick, "object %d (%s) has non-finite kinematics", o.ID, o.Type)
		}
		if !e.ctx.Contains(o, Tolerance) {
			return invariantErrorf(e.tick, "object %d (%s) at (%g, %g) left the context", o.ID, o.Type, o.Pos.X, o.Pos.Y)
		}
		if o.Static {
			if o.Pos != e.statics[o.ID] || !o.Vel.IsZero() {
				return invariantErrorf(e.tick, "static object %d (%s) moved", o.ID, o.Type)
			}
			continue
		}
		if !speedMatches(o.Vel.Len(), e.speed) {
			return invariantErrorf(e.tick, "object %d (%s) speed %g, expected %g", o.ID, o.Type, o.Vel.Len(), e.speed)
		}
	}

	for i, a := range e.objects {
		for _, b := range e.objects[i+1:] {
			if a.Static && b.Static {
				continue
			}
			ox, oy := overlap(a, b)
			if ox > Tolerance && oy > Tolerance {
				return invariantErrorf(e.tick, "objects %d (%s) and %d (%s) overlap by (%g, %g)",
					a.ID, a.Type, b.ID, b.Type, ox, oy)
			}
		}
	}
	return nil
}
