package transcript

// Labels holds the fixed text the transcriber emits around dialogue and
// staging effects.
type Labels struct {
	CharactersOpen  string // header prefix before the joined names
	CharactersClose string
	NameSeparator   string // between names in the header
	SpeakerMark     string // between speaker and body
	ValueMark       string // between an effect label and its payload
	TelopOpen       string
	TelopClose      string
	Place           string
	FullScreenText  string
	Choice          string
	Movie           string
	PlayMV          string
	CGStill         string
	Background      string
	FlashbackIn     string
	FlashbackOut    string
	BlackOut        string
	WhiteOut        string

	// Placeholder texts written in place of a transcript.
	MissingAsset    string // asset not on disk and downloads disabled
	UnreadableAsset string // upstream returned something that is not JSON
	SeeBandStory    string
	SeeMainStory    string
	AnimationStory  string
	NoEventStory    string
	NoCardStory     string

	// Story file naming.
	NoStoryFile string
	FirstHalf   string
	SecondHalf  string
}

// EnglishLabels is the default label set.
var EnglishLabels = Labels{
	CharactersOpen:  "(Characters appearing: ",
	CharactersClose: ")",
	NameSeparator:   "、",
	SpeakerMark:     "：",
	ValueMark:       ": ",
	TelopOpen:       "【",
	TelopClose:      "】",
	Place:           "(Place)",
	FullScreenText:  "(Full-screen text)",
	Choice:          "(Choice)",
	Movie:           "(Play video)",
	PlayMV:          "(Play MV)",
	CGStill:         "(CG inserted)",
	Background:      "(Background change)",
	FlashbackIn:     "(Flashback start ↓)",
	FlashbackOut:    "(Flashback end ↑)",
	BlackOut:        "(Black transition)",
	WhiteOut:        "(White transition)",

	MissingAsset:    "(Could not read JSON file)",
	UnreadableAsset: "(Error reading JSON)",
	SeeBandStory:    "(See band story)",
	SeeMainStory:    "(See main story)",
	AnimationStory:  "(Animated story)",
	NoEventStory:    "This event has no event story",
	NoCardStory:     "This card has no story",

	NoStoryFile: "No story",
	FirstHalf:   "Part 1",
	SecondHalf:  "Part 2",
}

// ChineseLabels matches the transcripts published by the crawler's
// Chinese-speaking users.
var ChineseLabels = Labels{
	CharactersOpen:  "（登场角色：",
	CharactersClose: "）",
	NameSeparator:   "、",
	SpeakerMark:     "：",
	ValueMark:       "：",
	TelopOpen:       "【",
	TelopClose:      "】",
	Place:           "（地点）",
	FullScreenText:  "（全屏幕文字）",
	Choice:          "（选项）",
	Movie:           "（播放视频）",
	PlayMV:          "（播放MV）",
	CGStill:         "（插入CG）",
	Background:      "（背景切换）",
	FlashbackIn:     "（回忆切入 ↓）",
	FlashbackOut:    "（回忆切出 ↑）",
	BlackOut:        "（黑屏转场）",
	WhiteOut:        "（白屏转场）",

	MissingAsset:    "未能读取json文件",
	UnreadableAsset: "读取json出错",
	SeeBandStory:    "见乐队故事",
	SeeMainStory:    "见主线故事",
	AnimationStory:  "动画故事",
	NoEventStory:    "本活动没有活动剧情",
	NoCardStory:     "本卡面没有剧情",

	NoStoryFile: "无剧情",
	FirstHalf:   "上篇",
	SecondHalf:  "下篇",
}

// LabelsFor returns the label set for a short language name ("en", "zh").
func LabelsFor(lang string) (Labels, bool) {
	switch lang {
	case "", "en":
		return EnglishLabels, true
	case "zh", "cn":
		return ChineseLabels, true
	default:
		return Labels{}, false
	}
}
