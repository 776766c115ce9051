package reconcile

import (
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Guard runs at most one reconciliation pass per (user, look-back) key.
// Callers arriving while a pass is in flight receive that pass's result.
type Guard struct {
	group singleflight.Group
}

func guardKey(userID string, lookBack int) string {
	return userID + ":" + strconv.Itoa(lookBack)
}

// WithLock runs fn under the key's lock. shared reports whether the result
// came from a pass started by another caller.
func (g *Guard) WithLock(userID string, lookBack int, fn func() (Report, error)) (rep Report, shared bool, err error) {
	v, err, shared := g.group.Do(guardKey(userID, lookBack), func() (any, error) {
		return fn()
	})
	if v != nil {
		rep = v.(Report)
	}
	return rep, shared, err
}
