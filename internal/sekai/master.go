package sekai

// Master table rows, reduced to the fields the getters read.

type character2d struct {
	ID          int `json:"id"`
	CharacterID int `json:"characterId"`
}

type event struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	EventType       string `json:"eventType"`
	Unit            string `json:"unit"`
	AssetbundleName string `json:"assetbundleName"`
}

type eventStory struct {
	EventID                   int                 `json:"eventId"`
	Outline                   string              `json:"outline"`
	BannerGameCharacterUnitID *int                `json:"bannerGameCharacterUnitId"`
	Episodes                  []eventStoryEpisode `json:"eventStoryEpisodes"`
}

type eventStoryEpisode struct {
	EventStoryID    int    `json:"eventStoryId"`
	EpisodeNo       int    `json:"episodeNo"`
	Title           string `json:"title"`
	ScenarioID      string `json:"scenarioId"`
	GameCharacterID *int   `json:"gameCharacterId"`
}

type unitProfile struct {
	Seq             int    `json:"seq"`
	UnitName        string `json:"unitName"`
	ProfileSentence string `json:"profileSentence"`
}

type unitStory struct {
	Seq      int                `json:"seq"`
	Chapters []unitStoryChapter `json:"chapters"`
}

type unitStoryChapter struct {
	AssetbundleName string             `json:"assetbundleName"`
	Episodes        []unitStoryEpisode `json:"episodes"`
}

type unitStoryEpisode struct {
	EpisodeNo  int    `json:"episodeNo"`
	Title      string `json:"title"`
	ScenarioID string `json:"scenarioId"`
}

type card struct {
	ID              int    `json:"id"`
	CharacterID     int    `json:"characterId"`
	CardRarityType  string `json:"cardRarityType"`
	Prefix          string `json:"prefix"`
	SupportUnit     string `json:"supportUnit"`
	AssetbundleName string `json:"assetbundleName"`
}

type cardEpisode struct {
	CardID     int    `json:"cardId"`
	Title      string `json:"title"`
	ScenarioID string `json:"scenarioId"`
}

type eventCard struct {
	CardID             int  `json:"cardId"`
	EventID            int  `json:"eventId"`
	IsDisplayCardStory bool `json:"isDisplayCardStory"`
}

type area struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	SubName *string `json:"subName"`
}

type actionSet struct {
	ID                 int    `json:"id"`
	AreaID             int    `json:"areaId"`
	ScenarioID         string `json:"scenarioId"`
	ActionSetType      string `json:"actionSetType"`
	IsNextGrade        bool   `json:"isNextGrade"`
	ReleaseConditionID int    `json:"releaseConditionId"`
}
