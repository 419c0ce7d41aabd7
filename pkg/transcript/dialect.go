package transcript

import "github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"

// dialect captures the per-game differences in which effects are rendered.
type dialect struct {
	effects          map[scenario.EffectType]bool
	cgStills         bool
	backgroundDetail func(scenario.EffectEntry) string
}

func (d dialect) renders(t scenario.EffectType) bool {
	return d.effects[t]
}

var baseEffects = []scenario.EffectType{
	scenario.EffectTelop,
	scenario.EffectChangeBackground,
	scenario.EffectFlashbackIn,
	scenario.EffectFlashbackOut,
	scenario.EffectBlackOut,
	scenario.EffectWhiteOut,
}

var sekaiDialect = dialect{
	effects: effectSet(append([]scenario.EffectType{
		scenario.EffectPlaceInfo,
		scenario.EffectFullScreenText,
		scenario.EffectSimpleSelectable,
		scenario.EffectMovie,
		scenario.EffectPlayMV,
	}, baseEffects...)),
	cgStills: true,
	backgroundDetail: func(e scenario.EffectEntry) string {
		return e.Value
	},
}

// bestdori backgrounds are identified by both the image and its variant.
var bestdoriDialect = dialect{
	effects:  effectSet(baseEffects),
	cgStills: false,
	backgroundDetail: func(e scenario.EffectEntry) string {
		if e.Secondary == nil {
			return e.Value
		}
		return e.Value + ", " + *e.Secondary
	},
}

func dialectFor(source scenario.Source) dialect {
	if source == scenario.SourceBestdori {
		return bestdoriDialect
	}
	return sekaiDialect
}

func effectSet(types []scenario.EffectType) map[scenario.EffectType]bool {
	set := make(map[scenario.EffectType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
