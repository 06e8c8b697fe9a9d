package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateMeetingRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
}

type CreateMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
	Token     string `json:"token"`
}

type JoinResponse struct {
	Meeting       *domain.Meeting     `json:"meeting"`
	Participant   *domain.Participant `json:"participant"`
	AlreadyJoined bool                `json:"already_joined"`
}

type SendSignalRequest struct {
	To      string `json:"to" validate:"required,max=128"`
	Type    string `json:"type" validate:"required,max=64"`
	Payload string `json:"payload" validate:"max=65536"`
}

type PruneSignalsRequest struct {
	// Zero selects the configured retention window.
	Window time.Duration `json:"window" validate:"gte=0"`
}

// MaxPruneWindowSeconds is the largest window that fits a time.Duration.
const MaxPruneWindowSeconds = math.MaxInt64 / int64(time.Second)

// PruneWindowFromSeconds converts a transport-level window in seconds.
// Values that would overflow time.Duration are rejected.
func PruneWindowFromSeconds(sec int64) (time.Duration, error) {
	if sec > MaxPruneWindowSeconds || sec < -MaxPruneWindowSeconds {
		return 0, fmt.Errorf("%w: window_seconds out of range", domain.ErrInvalidArgument)
	}
	return time.Duration(sec) * time.Second, nil
}

type SyncProfileRequest struct {
	Email       string  `json:"email" validate:"omitempty,email"`
	DisplayName string  `json:"display_name" validate:"required,max=100"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

type UpdateMediaRequest struct {
	Audio *bool `json:"audio,omitempty" validate:"required_without=Video"`
	Video *bool `json:"video,omitempty" validate:"required_without=Audio"`
}

// validateRequest wraps validator failures into domain.ErrInvalidArgument
// with a short field list.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
}
