package scenario

import "strconv"

// ActionKind is the snippet action shared by both games.
type ActionKind int

const (
	ActionNoAction ActionKind = iota
	ActionTalk
	ActionCharacterLayout
	ActionInputName
	ActionCharacterMotion
	ActionSelectable
	ActionSpecialEffect
	ActionSound
)

var actionNames = [...]string{
	"NoAction",
	"Talk",
	"CharacterLayout",
	"InputName",
	"CharacterMotion",
	"Selectable",
	"SpecialEffect",
	"Sound",
}

// Name returns the member name and whether the value is a known member.
func (a ActionKind) Name() (string, bool) {
	if a < 0 || int(a) >= len(actionNames) {
		return "", false
	}
	return actionNames[a], true
}

// String returns the member name, or the raw number for unknown values.
func (a ActionKind) String() string {
	if name, ok := a.Name(); ok {
		return name
	}
	return strconv.Itoa(int(a))
}

// EffectType is the special-effect kind. PlayMV only appears in Sekai unit stories.
type EffectType int

const (
	EffectNoEffect EffectType = iota
	EffectBlackIn
	EffectBlackOut
	EffectWhiteIn
	EffectWhiteOut
	EffectShakeScreen
	EffectShakeWindow
	EffectChangeBackground
	EffectTelop
	EffectFlashbackIn
	EffectFlashbackOut
	EffectChangeCardStill
	EffectAmbientColorNormal
	EffectAmbientColorEvening
	EffectAmbientColorNight
	EffectPlayScenarioEffect
	EffectStopScenarioEffect
	EffectChangeBackgroundStill
	EffectPlaceInfo
	EffectMovie
	EffectSekaiIn
	EffectSekaiOut
	EffectAttachCharacterShader
	EffectSimpleSelectable
	EffectFullScreenText
	EffectStopShakeScreen
	EffectStopShakeWindow
	EffectMemoryIn
	EffectMemoryOut
	EffectBlackWipeInLeft
	EffectBlackWipeOutLeft
	EffectBlackWipeInRight
	EffectBlackWipeOutRight
	EffectBlackWipeInTop
	EffectBlackWipeOutTop
	EffectBlackWipeInBottom
	EffectBlackWipeOutBottom
	EffectPlayMV
	EffectFullScreenTextShow
	EffectFullScreenTextHide
	EffectSekaiInCenter
	EffectSekaiOutCenter
	EffectChangeCameraPosition
	EffectChangeCameraZoomLevel
	EffectBlur
)

var effectNames = [...]string{
	"NoEffect",
	"BlackIn",
	"BlackOut",
	"WhiteIn",
	"WhiteOut",
	"ShakeScreen",
	"ShakeWindow",
	"ChangeBackground",
	"Telop",
	"FlashbackIn",
	"FlashbackOut",
	"ChangeCardStill",
	"AmbientColorNormal",
	"AmbientColorEvening",
	"AmbientColorNight",
	"PlayScenarioEffect",
	"StopScenarioEffect",
	"ChangeBackgroundStill",
	"PlaceInfo",
	"Movie",
	"SekaiIn",
	"SekaiOut",
	"AttachCharacterShader",
	"SimpleSelectable",
	"FullScreenText",
	"StopShakeScreen",
	"StopShakeWindow",
	"MemoryIn",
	"MemoryOut",
	"BlackWipeInLeft",
	"BlackWipeOutLeft",
	"BlackWipeInRight",
	"BlackWipeOutRight",
	"BlackWipeInTop",
	"BlackWipeOutTop",
	"BlackWipeInBottom",
	"BlackWipeOutBottom",
	"PlayMV",
	"FullScreenTextShow",
	"FullScreenTextHide",
	"SekaiInCenter",
	"SekaiOutCenter",
	"ChangeCameraPosition",
	"ChangeCameraZoomLevel",
	"Blur",
}

// Name returns the member name and whether the value is a known member.
func (e EffectType) Name() (string, bool) {
	if e < 0 || int(e) >= len(effectNames) {
		return "", false
	}
	return effectNames[e], true
}

// String returns the member name, or the raw number for unknown values.
func (e EffectType) String() string {
	if name, ok := e.Name(); ok {
		return name
	}
	return strconv.Itoa(int(e))
}
