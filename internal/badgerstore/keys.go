package badgerstore

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Key layout. Timestamps are zero-padded to 19 digits so lexicographic
// order equals chronological order.
//
//	user:{externalID}                                   -> User
//	meeting:{meetingID}                                 -> Meeting
//	token:{token}                                       -> meetingID
//	occupancy:{meetingID}                               -> active participant count (uint64 BE)
//	participant:{meetingID}:{joinedAt}:{participantID}  -> Participant
//	active:{meetingID}:{userID}                         -> participant key
//	signal:{meetingID}:{hex(recipient)}:{createdAt}:{signalID} -> Signal

func userKey(externalID string) []byte { return []byte("user:" + externalID) }

func meetingKey(id string) []byte { return []byte("meeting:" + id) }

func meetingPrefix() []byte { return []byte("meeting:") }

func tokenKey(token string) []byte { return []byte("token:" + token) }

func occupancyKey(meetingID string) []byte { return []byte("occupancy:" + meetingID) }

func participantPrefix(meetingID string) []byte {
	return []byte("participant:" + meetingID + ":")
}

func participantKey(meetingID string, joinedAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("participant:%s:%019d:%s", meetingID, joinedAt.UnixNano(), id))
}

func activeKey(meetingID, userID string) []byte {
	return []byte("active:" + meetingID + ":" + userID)
}

func signalMeetingPrefix(meetingID string) []byte {
	return []byte("signal:" + meetingID + ":")
}

// Recipient ids are unvalidated input, hex keeps them from breaking the layout.
func signalRecipientPrefix(meetingID, recipientID string) []byte {
	return []byte("signal:" + meetingID + ":" + hex.EncodeToString([]byte(recipientID)) + ":")
}

func signalKey(meetingID, recipientID string, createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("signal:%s:%s:%019d:%s",
		meetingID, hex.EncodeToString([]byte(recipientID)), createdAt.UnixNano(), id))
}
