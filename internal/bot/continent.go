package bot

import "slices"

// continentStatus is a bot's stake in one continent.
type continentStatus struct {
	ID    string
	Share float64
	Mine  []string
	Enemy []string
}

// continentStatuses reports every continent the bot does not fully own, in
// board order.
func continentStatuses(v *View) []continentStatus {
	mine := v.Mine()
	var out []continentStatus
	for _, id := range v.Board.ContinentIDs() {
		c, _ := v.Board.Continent(id)
		if len(c.Territories) == 0 {
			continue
		}
		st := continentStatus{ID: id}
		for _, t := range c.Territories {
			if containsID(mine, t) {
				st.Mine = append(st.Mine, t)
			} else {
				st.Enemy = append(st.Enemy, t)
			}
		}
		st.Share = float64(len(st.Mine)) / float64(len(c.Territories))
		if st.Share < 1 {
			out = append(out, st)
		}
	}
	return out
}

func mostHeld(statuses []continentStatus) (continentStatus, bool) {
	if len(statuses) == 0 {
		return continentStatus{}, false
	}
	best := statuses[0]
	for _, st := range statuses[1:] {
		if st.Share > best.Share {
			best = st
		}
	}
	return best, true
}

func leastHeld(statuses []continentStatus) (continentStatus, bool) {
	if len(statuses) == 0 {
		return continentStatus{}, false
	}
	best := statuses[0]
	for _, st := range statuses[1:] {
		if st.Share < best.Share {
			best = st
		}
	}
	return best, true
}

// attackFrom lists owned territories bordering an enemy territory of the
// continent. Territories on the continent are preferred when the bot has any.
func attackFrom(v *View, target continentStatus) []string {
	candidates := target.Mine
	if len(candidates) == 0 {
		candidates = v.Mine()
	}
	var out []string
	for _, id := range candidates {
		if slices.ContainsFunc(v.Board.Adjacent(id), func(n string) bool { return containsID(target.Enemy, n) }) {
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	return slices.Contains(ids, id)
}
