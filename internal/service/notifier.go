package service

import "github.com/cwrk-planet/meeting-service/internal/domain"

// Notifier receives meeting events after they are committed. Calls must not
// block; the websocket hub implements it.
type Notifier interface {
	ParticipantJoined(token string, p domain.Participant)
	ParticipantLeft(token string, userID string)
	MediaChanged(token string, p domain.Participant)
	SignalSent(token string, s domain.Signal)
	MeetingEnded(token string)
}

type nopNotifier struct{}

func (nopNotifier) ParticipantJoined(string, domain.Participant) {}
func (nopNotifier) ParticipantLeft(string, string)              {}
func (nopNotifier) MediaChanged(string, domain.Participant)     {}
func (nopNotifier) SignalSent(string, domain.Signal)            {}
func (nopNotifier) MeetingEnded(string)                         {}
