package keywords

// defaultKeywords is the vocabulary seeded into the database on first
// start. Admins extend it at runtime through the management bot.
var defaultKeywords = map[string][]string{
	KindTransport: {
		"taxi", "taksi", "yandex", "mytaxi", "zakaz", "buyurtma",
		"haydovchi", "driver", "moshin", "mashin", "mashina", "avto", "ulov",
	},
	KindRequest: {
		"kerak", "kere", "bormi", "bormikan", "qayerga", "buyurtma",
		"zakaz", "yuradigan", "yuradiglar", "ketadigan", "olibketadigan",
		"keremi",
	},
	KindOffer: {
		"boraman", "ketaman", "yuraman", "olibketaman", "ketyapman",
		"ketyapmiz", "yuryapman", "yuryapmiz", "olibketamiz", "chiqaman",
		"chiqamiz", "zakazga", "joybor", "bagaj", "pochta", "shafer",
		"shafermiz", "haydovchimiz", "beraman", "xizmat", "taklif", "bosh",
	},
	KindExclude: {
		"vakansiya", "reklama", "dostavka", "kredit", "obuna", "kanal",
		"kurs", "sotiladi", "sotaman", "ishga", "job", "marketing",
	},
	KindLocation: {
		"toshkent", "tashkent", "samarqand", "samarkand", "andijon",
		"namangan", "fargona", "fergana", "nukus", "buxoro", "jizzax",
		"xorazm", "urganch", "termiz", "qarshi", "navoiy", "guliston",
	},
	KindRoute: {"dan", "ga", "from", "to"},
}

// Defaults returns a copy of the seed vocabulary keyed by kind.
func Defaults() map[string][]string {
	defaults := make(map[string][]string, len(defaultKeywords))

	for kind, values := range defaultKeywords {
		copied := make([]string, len(values))
		copy(copied, values)
		defaults[kind] = copied
	}

	return defaults
}

func defaultSnapshot() *Snapshot {
	return &Snapshot{
		Transport: NewSet(defaultKeywords[KindTransport]...),
		Request:   NewSet(defaultKeywords[KindRequest]...),
		Offer:     NewSet(defaultKeywords[KindOffer]...),
		Exclude:   NewSet(defaultKeywords[KindExclude]...),
		Location:  NewSet(defaultKeywords[KindLocation]...),
		Route:     NewSet(defaultKeywords[KindRoute]...),
		Version:   0,
	}
}
