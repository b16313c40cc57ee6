package payments

// SelectIntent picks the intent that best represents a booking among search results:
// the newest succeeded intent, otherwise the newest intent of any status.
func SelectIntent(candidates []Intent) (*Intent, bool) {
	var best, newest *Intent
	for i := range candidates {
		c := &candidates[i]
		if newest == nil || c.Created.After(newest.Created) {
			newest = c
		}
		if c.Succeeded() && (best == nil || c.Created.After(best.Created)) {
			best = c
		}
	}
	if best != nil {
		return best, true
	}
	if newest != nil {
		return newest, true
	}
	return nil, false
}
