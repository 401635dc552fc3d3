package models

// ParticipantView is a participant enriched with derived eligibility data.
type ParticipantView struct {
	Participant
	LevelOK bool `json:"level_ok"`
}

// GameStats are slot counters derived from the current participant rows.
// They are recomputed on every read, never stored.
type GameStats struct {
	GoingCount    int  `json:"going_count"`
	WaitlistCount int  `json:"waitlist_count"`
	MaybeCount    int  `json:"maybe_count"`
	NotGoingCount int  `json:"not_going_count"`
	FreeSlots     int  `json:"free_slots"`
	IsFull        bool `json:"is_full"`
}

// GameDetail is the read model for a single game: the game row plus its
// participants grouped by admission state.
type GameDetail struct {
	Game     Game              `json:"game"`
	Players  []ParticipantView `json:"players"`
	Requests []ParticipantView `json:"requests"`
	Maybe    []ParticipantView `json:"maybe"`
	Rejected []ParticipantView `json:"rejected"`
	Stats    GameStats         `json:"stats"`
}
