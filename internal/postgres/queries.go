package postgres

const (
	queryUpsertUser = `
		INSERT INTO users (id, external_id, email, display_name, avatar_url, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    last_active_at = EXCLUDED.last_active_at
		RETURNING id, created_at`
	queryGetUserByExternalID = `
		SELECT id, external_id, email, display_name, avatar_url, created_at, last_active_at
		FROM users
		WHERE external_id = $1`

	meetingColumns     = `id, token, host_id, title, description, is_active, max_participants, created_at, ended_at`
	queryCreateMeeting = `
		INSERT INTO meetings (id, token, host_id, title, description, is_active, max_participants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	queryGetMeetingByToken = `SELECT ` + meetingColumns + ` FROM meetings WHERE token = $1`
	queryLockMeetingByToken = `SELECT ` + meetingColumns + ` FROM meetings WHERE token = $1 FOR UPDATE`
	queryEndMeeting        = `
		UPDATE meetings
		SET is_active = FALSE, ended_at = COALESCE(ended_at, $2)
		WHERE id = $1
		RETURNING ` + meetingColumns
	queryListActiveMeetings = `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE is_active
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	participantColumns        = `id, meeting_id, user_id, peer_id, joined_at, left_at, audio_enabled, video_enabled`
	queryLockMeetingCapacity  = `SELECT is_active, max_participants FROM meetings WHERE id = $1 FOR UPDATE`
	queryGetActiveParticipant = `
		SELECT ` + participantColumns + `
		FROM meeting_participants
		WHERE meeting_id = $1 AND user_id = $2 AND left_at IS NULL`
	queryCountActiveParticipants = `SELECT COUNT(*) FROM meeting_participants WHERE meeting_id = $1 AND left_at IS NULL`
	queryInsertParticipant       = `
		INSERT INTO meeting_participants (id, meeting_id, user_id, peer_id, joined_at, audio_enabled, video_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	queryLeaveParticipant = `
		UPDATE meeting_participants
		SET left_at = $3
		WHERE meeting_id = $1 AND user_id = $2 AND left_at IS NULL`
	queryListActiveParticipants = `
		SELECT ` + participantColumns + `
		FROM meeting_participants
		WHERE meeting_id = $1 AND left_at IS NULL
		ORDER BY joined_at ASC, id ASC`
	queryUpdateParticipantMedia = `
		UPDATE meeting_participants
		SET audio_enabled = COALESCE($3, audio_enabled),
		    video_enabled = COALESCE($4, video_enabled)
		WHERE meeting_id = $1 AND user_id = $2 AND left_at IS NULL
		RETURNING ` + participantColumns

	querySaveSignal = `
		INSERT INTO meeting_signals (id, meeting_id, from_user_id, to_user_id, type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	queryListSignalsForRecipient = `
		SELECT id, meeting_id, from_user_id, to_user_id, type, payload, created_at
		FROM meeting_signals
		WHERE meeting_id = $1 AND to_user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`
	queryDeleteSignalsOlderThan = `DELETE FROM meeting_signals WHERE meeting_id = $1 AND created_at < $2`
)
