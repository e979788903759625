// Package geo maps normalized message text to one of the fourteen
// administrative regions of Uzbekistan so published orders carry a
// region hashtag.
package geo

import (
	"sort"
	"strings"

	"github.com/lueurxax/taxi-order-bot/internal/fuzzy"
	"github.com/lueurxax/taxi-order-bot/internal/textnorm"
)

// Match is a resolved region with the evidence score that produced it.
type Match struct {
	RegionName string
	Hashtag    string
	Confidence int
}

type region struct {
	name    string
	hashtag string
	aliases []string
}

// Regions are declared in a fixed order so equal-score ties always
// resolve the same way.
var regions = []region{
	{
		name:    "Toshkent shahri",
		hashtag: "#ToshkentShahri",
		aliases: []string{
			"toshkent", "tashkent", "toshkint", "tashkint",
			"toshkent shahar", "toshkent shahri", "tashkent city",
			"chilonzor", "sergeli", "yunusobod", "olmazor",
			"bektemir", "yakkasaroy", "uchtepa", "poytaxt",
		},
	},
	{
		name:    "Toshkent viloyati",
		hashtag: "#ToshkentViloyati",
		aliases: []string{
			"toshkent viloyati", "tashkent region",
			"chirchiq", "angren", "olmaliq", "bekobod", "yangiyol",
			"gazalkent", "parkent", "zangiota", "qibray", "chinoz",
		},
	},
	{
		name:    "Andijon viloyati",
		hashtag: "#AndijonViloyati",
		aliases: []string{
			"andijon", "andijan", "asaka", "xonobod", "shahrixon",
			"marhamat", "baliqchi", "paxtaobod",
		},
	},
	{
		name:    "Namangan viloyati",
		hashtag: "#NamanganViloyati",
		aliases: []string{
			"namangan", "chortoq", "chust", "pop", "uychi",
			"torakorgon", "turakurgan", "uchqorgon", "mingbuloq", "kosonsoy",
		},
	},
	{
		name:    "Fargona viloyati",
		hashtag: "#FargonaViloyati",
		aliases: []string{
			"fargona", "fergana", "vodiy", "qoqon", "kokand", "margilon",
			"quva", "quvasoy", "rishton", "oltiariq", "beshariq", "bogdod",
		},
	},
	{
		name:    "Sirdaryo viloyati",
		hashtag: "#SirdaryoViloyati",
		aliases: []string{
			"sirdaryo", "guliston", "yangiyer", "shirin", "boyovut",
			"xovos", "mirzaobod", "sayxunobod",
		},
	},
	{
		name:    "Jizzax viloyati",
		hashtag: "#JizzaxViloyati",
		aliases: []string{
			"jizzax", "zarbdor", "gallaorol", "forish", "paxtakor",
			"zomin", "dustlik", "baxmal",
		},
	},
	{
		name:    "Samarqand viloyati",
		hashtag: "#SamarqandViloyati",
		aliases: []string{
			"samarqand", "samarkand", "samarqan", "samarqannd", "urgut",
			"jartepa", "marhabo", "texnagazoil", "kattakorgon", "bulungur",
			"ishtixon", "pastdargom", "payariq", "jomboy", "narpay",
		},
	},
	{
		name:    "Buxoro viloyati",
		hashtag: "#BuxoroViloyati",
		aliases: []string{
			"buxoro", "bukhara", "gijduvon", "romitan", "vobkent",
			"qorakol", "karakul", "olot", "peshku", "shofirkon",
		},
	},
	{
		name:    "Navoiy viloyati",
		hashtag: "#NavoiyViloyati",
		aliases: []string{
			"navoiy", "navoi", "zarafshon", "uchquduq", "konimex",
			"karmana", "nurota", "tomdi", "xatirchi",
		},
	},
	{
		name:    "Qashqadaryo viloyati",
		hashtag: "#QashqadaryoViloyati",
		aliases: []string{
			"qashqadaryo", "qashkadaryo", "qarshi", "shahrisabz", "kitob",
			"guzor", "dehqonobod", "kasbi", "muborak", "yakkabog",
			"chiroqchi", "koson",
		},
	},
	{
		name:    "Surxondaryo viloyati",
		hashtag: "#SurxondaryoViloyati",
		aliases: []string{
			"surxondaryo", "surkhandarya", "termiz", "denov", "boysun",
			"sherobod", "jarqorgon", "qiziriq", "angor", "sariosiyo",
			"kumqorgon",
		},
	},
	{
		name:    "Xorazm viloyati",
		hashtag: "#XorazmViloyati",
		aliases: []string{
			"xorazm", "khorezm", "urganch", "xiva", "khiva", "pitnak",
			"hazorasp", "shovot", "gurlan", "yangiarik", "bogot",
		},
	},
	{
		name:    "Qoraqalpogiston Respublikasi",
		hashtag: "#Qoraqalpogiston",
		aliases: []string{
			"qoraqalpogiston", "qoraqalpaqstan", "karakalpakstan", "nukus",
			"beruniy", "kungirot", "kungrad", "taxiatosh", "chimboy",
			"moynaq", "turtkul", "ellikqala", "kegeyli", "shumanay",
		},
	},
}

var stemSuffixes = []string{"lardan", "dan", "ga", "ni", "da", "lik"}

type phraseAlias struct {
	phrase string
	region int
}

// Resolver scores region aliases against normalized text. It is
// immutable after construction and safe for concurrent use.
type Resolver struct {
	regions       []region
	phrases       []phraseAlias
	tokenToRegion map[string]int
	tokenBuckets  map[int][]string
}

func NewResolver() *Resolver {
	r := &Resolver{
		regions:       regions,
		tokenToRegion: make(map[string]int),
	}

	var tokens []string

	for i, reg := range r.regions {
		aliases := make([]string, len(reg.aliases))
		copy(aliases, reg.aliases)
		sort.Strings(aliases)

		for _, alias := range aliases {
			if strings.Contains(alias, " ") {
				r.phrases = append(r.phrases, phraseAlias{phrase: alias, region: i})
				continue
			}

			if _, ok := r.tokenToRegion[alias]; !ok {
				r.tokenToRegion[alias] = i
				tokens = append(tokens, alias)
			}
		}
	}

	r.tokenBuckets = fuzzy.BucketByLen(tokens)

	return r
}

// Detect resolves normalized text to a region. It returns nil when the
// accumulated evidence is below the confidence threshold: one fuzzy
// token alone is never enough.
func (r *Resolver) Detect(normalizedText string) *Match {
	if normalizedText == "" {
		return nil
	}

	scores := newScoreBoard(len(r.regions))

	for _, pa := range r.phrases {
		if strings.Contains(normalizedText, pa.phrase) {
			scores.add(pa.region, 3)
		}
	}

	for _, token := range textnorm.Tokenize(normalizedText) {
		token = StemToken(token)

		if idx, ok := r.tokenToRegion[token]; ok {
			scores.add(idx, 2)
			continue
		}

		if idx, ok := r.fuzzyRegion(token); ok {
			scores.add(idx, 1)
		}
	}

	idx, score := scores.best()
	if score < 2 {
		return nil
	}

	return &Match{
		RegionName: r.regions[idx].name,
		Hashtag:    r.regions[idx].hashtag,
		Confidence: score,
	}
}

func (r *Resolver) fuzzyRegion(token string) (int, bool) {
	if len(token) < 4 {
		return 0, false
	}

	for l := len(token) - 1; l <= len(token)+1; l++ {
		for _, candidate := range r.tokenBuckets[l] {
			if fuzzy.OneEditOrLess(token, candidate) {
				return r.tokenToRegion[candidate], true
			}
		}
	}

	return 0, false
}

// StemToken strips a common Uzbek case or derivational suffix when the
// remaining stem is long enough to still be distinctive.
func StemToken(token string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(token, suffix) && len(token) > len(suffix)+2 {
			return token[:len(token)-len(suffix)]
		}
	}

	return token
}

// scoreBoard accumulates region scores preserving first-hit order so
// ties resolve to the region that scored first.
type scoreBoard struct {
	order  []int
	scores []int
	seen   []bool
}

func newScoreBoard(n int) *scoreBoard {
	return &scoreBoard{scores: make([]int, n), seen: make([]bool, n)}
}

func (s *scoreBoard) add(region, points int) {
	if !s.seen[region] {
		s.seen[region] = true
		s.order = append(s.order, region)
	}

	s.scores[region] += points
}

func (s *scoreBoard) best() (int, int) {
	bestIdx, bestScore := 0, 0

	for _, idx := range s.order {
		if s.scores[idx] > bestScore {
			bestIdx, bestScore = idx, s.scores[idx]
		}
	}

	return bestIdx, bestScore
}
