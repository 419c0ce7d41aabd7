package queue

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	GameSekai    = "sekai"
	GameBestdori = "bestdori"
)

// Crawl kinds per game.
const (
	KindEvent  = "event"
	KindUnit   = "unit"
	KindCard   = "card"
	KindTalk   = "talk"
	KindTalkID = "talk-id"
	KindBand   = "band"
	KindMain   = "main"
)

// Kinds lists the crawl kinds each game supports.
var Kinds = map[string][]string{
	GameSekai:    {KindEvent, KindUnit, KindCard, KindTalk, KindTalkID},
	GameBestdori: {KindEvent, KindBand, KindMain, KindCard},
}

// Job is one crawl request: a game, a story kind and a target within it.
type Job struct {
	ID     uuid.UUID `json:"id"`
	Game   string    `json:"game"`
	Kind   string    `json:"kind"`
	Target string    `json:"target"`

	// Chapter narrows band story jobs; zero means every chapter.
	Chapter int `json:"chapter,omitempty"`

	// Lang is the server region for sekai and the text language for
	// bestdori. Empty means cn.
	Lang string `json:"lang,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob creates a job with a fresh id.
func NewJob(game, kind, target, lang string) *Job {
	return &Job{
		ID:         uuid.New(),
		Game:       game,
		Kind:       kind,
		Target:     target,
		Lang:       lang,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Validate checks the game and kind.
func (j *Job) Validate() error {
	kinds, ok := Kinds[j.Game]
	if !ok {
		return fmt.Errorf("unknown game %q", j.Game)
	}
	if !slices.Contains(kinds, j.Kind) {
		return fmt.Errorf("unknown %s kind %q", j.Game, j.Kind)
	}
	return nil
}

// LockKey identifies the work a job does, so two workers never crawl the
// same target at once.
func (j *Job) LockKey() string {
	return fmt.Sprintf("crawl-lock:%s:%s:%s:%d:%s", j.Game, j.Kind, j.Target, j.Chapter, j.Lang)
}

func (j *Job) String() string {
	return fmt.Sprintf("%s %s %s", j.Game, j.Kind, j.Target)
}

// ToJSON converts the job to JSON bytes for Redis
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// FromJSON parses a job from JSON bytes
func FromJSON(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
