package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Region is a game server region / text language, in the short form used by
// the upstream mirrors: cn, jp, tw, en, kr.
type Region string

const (
	RegionCN Region = "cn"
	RegionJP Region = "jp"
	RegionTW Region = "tw"
	RegionEN Region = "en"
	RegionKR Region = "kr"
)

var regionTags = []struct {
	region Region
	tag    language.Tag
}{
	{RegionJP, language.Japanese},
	{RegionEN, language.English},
	{RegionTW, language.TraditionalChinese},
	{RegionCN, language.SimplifiedChinese},
	{RegionKR, language.Korean},
}

var regionMatcher = newRegionMatcher()

func newRegionMatcher() language.Matcher {
	tags := make([]language.Tag, len(regionTags))
	for i, rt := range regionTags {
		tags[i] = rt.tag
	}
	return language.NewMatcher(tags)
}

// ParseRegion accepts a short region name or any BCP 47 tag that matches one
// of the supported languages with high confidence ("ja-JP", "zh-TW").
func ParseRegion(s string) (Region, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, rt := range regionTags {
		if string(rt.region) == name {
			return rt.region, nil
		}
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unknown region %q", s)
	}
	_, index, confidence := regionMatcher.Match(tag)
	if confidence < language.High {
		return "", fmt.Errorf("unsupported region %q", s)
	}
	return regionTags[index].region, nil
}

// Tag returns the language tag for r.
func (r Region) Tag() language.Tag {
	for _, rt := range regionTags {
		if rt.region == r {
			return rt.tag
		}
	}
	return language.Und
}

func (r Region) String() string {
	return string(r)
}
