package heuristics

// Lists holds the fixed vocabularies the detector matches against. Order
// matters where a rule reports only its first match.
type Lists struct {
	Brands        []string
	DecoySuffixes []string
	HighAbuseTLDs []string
	TrustedTLDs   []string
	ScamKeywords  []string
}

// DefaultLists returns the built-in vocabularies.
func DefaultLists() Lists {
	return Lists{
		Brands: []string{
			"amazon", "ebay", "paypal", "apple", "walmart", "target", "bestbuy",
			"aliexpress", "alibaba", "etsy", "shopify", "nike", "adidas", "zalando",
			"google", "microsoft", "netflix", "costco", "ikea", "temu", "shein",
			"newegg", "wayfair", "macys", "homedepot", "lowes", "samsung", "sony",
			"asos", "rakuten", "flipkart", "zara", "uniqlo", "sephora",
		},
		DecoySuffixes: []string{
			"shop", "store", "official", "outlet", "sale", "deals", "online",
			"discount", "secure", "login", "support",
		},
		HighAbuseTLDs: []string{
			"tk", "ml", "ga", "cf", "gq", "xyz", "top", "buzz", "icu", "club",
			"work", "click", "link", "rest", "fit", "loan", "win", "bid",
			"country", "kim", "cam", "monster", "cyou", "sbs",
		},
		TrustedTLDs: []string{
			"com", "org", "net", "edu", "gov", "uk", "de", "ca", "au", "fr",
			"jp", "nl", "ch", "se", "no",
		},
		ScamKeywords: []string{
			"free", "cheap", "discount", "clearance", "replica", "giveaway",
			"bonus", "gift", "prize", "winner", "lucky", "promo", "coupon",
			"bargain", "verify", "wallet", "crypto", "deal",
		},
	}
}
