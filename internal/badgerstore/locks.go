package badgerstore

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// meetingLocks serialises writers of one meeting inside this process.
// Badger is embedded, so the process is the only writer; the optimistic
// transaction stays as a backstop.
type meetingLocks struct {
	stripes [lockStripes]sync.Mutex
}

func newMeetingLocks() *meetingLocks {
	return &meetingLocks{}
}

func (l *meetingLocks) lock(meetingID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(meetingID))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
