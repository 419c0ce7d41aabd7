package sekai

import "strings"

// UnitNames maps unit profile sequence numbers to display names.
var UnitNames = map[int]string{
	1: "虚拟歌手",
	2: "Leo/need",
	3: "MORE MORE JUMP！",
	4: "Vivid BAD SQUAD",
	5: "Wonderlands×Showtime",
	6: "25点，Nightcord见。",
}

// UnitCodes abbreviates the unit codes used by events and cards.
var UnitCodes = map[string]string{
	"light_sound":    "LN",
	"idol":           "MMJ",
	"street":         "VBS",
	"theme_park":     "WS",
	"school_refusal": "25时",
	"piapro":         "虚拟歌手",
}

// Characters maps game character ids to "unit_name". Only these ids count as
// named characters; everything else appearing in a scene is an extra.
var Characters = map[int]string{
	1:  "LN_星乃一歌",
	2:  "LN_天马咲希",
	3:  "LN_望月穗波",
	4:  "LN_日野森志步",
	5:  "MMJ_花里实乃理",
	6:  "MMJ_桐谷遥",
	7:  "MMJ_桃井爱莉",
	8:  "MMJ_日野森雫",
	9:  "VBS_小豆泽心羽",
	10: "VBS_白石杏",
	11: "VBS_东云彰人",
	12: "VBS_青柳冬弥",
	13: "WS_天马司",
	14: "WS_凤笑梦",
	15: "WS_草薙宁宁",
	16: "WS_神代类",
	17: "25时_宵崎奏",
	18: "25时_朝比奈真冬",
	19: "25时_东云绘名",
	20: "25时_晓山瑞希",
	21: "虚拟歌手_初音未来",
	22: "虚拟歌手_镜音铃",
	23: "虚拟歌手_镜音连",
	24: "虚拟歌手_巡音流歌",
	25: "虚拟歌手_MEIKO",
	26: "虚拟歌手_KAITO",
}

// BannerExtras are the unit-specific Miku ids that only appear as event
// banner characters.
var BannerExtras = map[int]string{
	27: "虚拟歌手_初音未来（LN）",
	28: "虚拟歌手_初音未来（MMJ）",
	29: "虚拟歌手_初音未来（VBS）",
	30: "虚拟歌手_初音未来（WS）",
	31: "虚拟歌手_初音未来（25时）",
}

// RarityNames names card rarity types.
var RarityNames = map[string]string{
	"rarity_1":        "一星",
	"rarity_2":        "二星",
	"rarity_3":        "三星",
	"rarity_4":        "四星",
	"rarity_birthday": "生日",
}

// EventAreaTalkExtras lists area talks that belong to an event without
// carrying its release condition.
var EventAreaTalkExtras = map[int][]int{
	145: {2373},
}

// CharacterName returns the bare name of a character, without its unit.
func CharacterName(id int) (string, bool) {
	full, ok := Characters[id]
	if !ok {
		return "", false
	}
	_, name, _ := strings.Cut(full, "_")
	return name, true
}

func bannerName(id int) (string, bool) {
	if name, ok := Characters[id]; ok {
		return name, true
	}
	name, ok := BannerExtras[id]
	return name, ok
}
