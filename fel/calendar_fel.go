package fel

import "github.com/pthm-cable/edmd/particle"

// CalendarFEL buckets owners by their PEL head time, sized so that
// amortised pop (including discarding stale events) is O(1) when buckets
// are sized to the mean event rate (spec §3, §4.6). Unlike HeapFEL, it
// exposes a real Stream operation that subtracts dt from every scheduled
// time and rebuckets, so a caller can rebase the queue's absolute clock to
// keep bucket arithmetic from losing precision over very long runs (spec
// §9 Open Question). The engine itself never calls Stream.
type CalendarFEL struct {
	pels        []*pel
	bucketWidth float64
	buckets     map[int][]int // absolute bucket index -> owner ids
	ownerBucket []int         // absolute bucket index per owner, or noBucket
	lowBucket   int           // scan cursor: lowest bucket index known possibly non-empty
}

const noBucket = -1 << 31

// NewCalendarFEL allocates a CalendarFEL for n particles. bucketWidth
// should be sized to roughly the mean time between events; too small
// forces many empty-bucket scans, too large defeats the O(1) guarantee.
func NewCalendarFEL(n int, bucketWidth float64, capacityHint int) *CalendarFEL {
	c := &CalendarFEL{
		pels:        make([]*pel, n),
		bucketWidth: bucketWidth,
		buckets:     make(map[int][]int),
		ownerBucket: make([]int, n),
	}
	for i := 0; i < n; i++ {
		c.pels[i] = newPEL(i, capacityHint)
		c.ownerBucket[i] = noBucket
	}
	return c
}

func (c *CalendarFEL) bucketOf(t float64) int {
	if c.bucketWidth <= 0 {
		return 0
	}
	// floor division that also works for negative t (pre-rebase times).
	q := t / c.bucketWidth
	fq := int(q)
	if q < 0 && float64(fq) != q {
		fq--
	}
	return fq
}

func (c *CalendarFEL) removeFromBucket(owner, bucket int) {
	owners := c.buckets[bucket]
	for i, o := range owners {
		if o == owner {
			owners[i] = owners[len(owners)-1]
			c.buckets[bucket] = owners[:len(owners)-1]
			break
		}
	}
	if len(c.buckets[bucket]) == 0 {
		delete(c.buckets, bucket)
	}
}

func (c *CalendarFEL) addToBucket(owner, bucket int) {
	c.buckets[bucket] = append(c.buckets[bucket], owner)
	c.ownerBucket[owner] = bucket
	if bucket < c.lowBucket {
		c.lowBucket = bucket
	}
}

func (c *CalendarFEL) Push(e particle.Event, owner int) {
	p := c.pels[owner]
	wasEmpty := len(p.events) == 0
	p.push(e)
	newHead, _ := p.head()
	newBucket := c.bucketOf(newHead.T)

	old := c.ownerBucket[owner]
	if wasEmpty || old == noBucket {
		c.addToBucket(owner, newBucket)
		return
	}
	if old != newBucket {
		c.removeFromBucket(owner, old)
		c.addToBucket(owner, newBucket)
	}
}

// Next scans forward from the cursor for the first non-empty bucket, then
// picks the owner within it with the earliest head time (tie-broken by
// owner id, then event kind, per spec §5).
func (c *CalendarFEL) Next() (int, particle.Event, bool) {
	if len(c.buckets) == 0 {
		return 0, particle.Event{}, false
	}
	for {
		if owners, ok := c.buckets[c.lowBucket]; ok && len(owners) > 0 {
			bestOwner := owners[0]
			bestEvent, _ := c.pels[bestOwner].head()
			for _, o := range owners[1:] {
				e, _ := c.pels[o].head()
				if e.T < bestEvent.T || (e.T == bestEvent.T && (o < bestOwner || (o == bestOwner && e.Kind < bestEvent.Kind))) {
					bestOwner, bestEvent = o, e
				}
			}
			return bestOwner, bestEvent, true
		}
		c.lowBucket++
	}
}

func (c *CalendarFEL) PopNextPELEvent(owner int) {
	p := c.pels[owner]
	if len(p.events) == 0 {
		return
	}
	oldBucket := c.ownerBucket[owner]
	p.popHead()
	if oldBucket != noBucket {
		c.removeFromBucket(owner, oldBucket)
	}
	if len(p.events) > 0 {
		newHead, _ := p.head()
		c.addToBucket(owner, c.bucketOf(newHead.T))
	} else {
		c.ownerBucket[owner] = noBucket
	}
}

func (c *CalendarFEL) ClearPEL(owner int) {
	p := c.pels[owner]
	p.clear()
	if b := c.ownerBucket[owner]; b != noBucket {
		c.removeFromBucket(owner, b)
		c.ownerBucket[owner] = noBucket
	}
}

// Stream subtracts dt from every scheduled event's time and rebuilds the
// bucket index accordingly — the one operation spec §4.6 reserves for
// time-rebased implementations.
func (c *CalendarFEL) Stream(dt float64) {
	for _, p := range c.pels {
		for i := range p.events {
			p.events[i].T -= dt
		}
	}
	c.rebucketAll()
}

func (c *CalendarFEL) rebucketAll() {
	c.buckets = make(map[int][]int)
	c.lowBucket = 0
	first := true
	for owner, p := range c.pels {
		if len(p.events) == 0 {
			c.ownerBucket[owner] = noBucket
			continue
		}
		head, _ := p.head()
		b := c.bucketOf(head.T)
		c.buckets[b] = append(c.buckets[b], owner)
		c.ownerBucket[owner] = b
		if first || b < c.lowBucket {
			c.lowBucket = b
			first = false
		}
	}
}

// Rebuild re-derives the bucket index from the PELs, used after bulk
// insertion at simulation start.
func (c *CalendarFEL) Rebuild() {
	c.rebucketAll()
}
