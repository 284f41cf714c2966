package normalizer

// abbreviations maps normalized shorthand treatment names to the active
// ingredient they denote. Keys and values are both in normalized-key form.
// Derived from recurring shorthand in real treatment dictionaries.
var abbreviations = map[string]string{
	"nac":                      "acetylcysteine",
	"n acetyl cysteine":        "acetylcysteine",
	"ldn":                      "naltrexone",
	"low dose naltrexone":      "naltrexone",
	"coq10":                    "coenzyme q10",
	"co q10":                   "coenzyme q10",
	"ubiquinol":                "coenzyme q10",
	"d ribose":                 "ribose",
	"nad":                      "nicotinamide adenine dinucleotide",
	"omega 3":                  "omega-3 fatty acids",
	"fish oil":                 "omega-3 fatty acids",
	"epa dha":                  "omega-3 fatty acids",
	"b complex":                "vitamin b complex",
	"b12":                      "cyanocobalamin",
	"vitamin b12":              "cyanocobalamin",
	"methylcobalamin":          "cyanocobalamin",
	"vitamin d3":               "cholecalciferol",
	"ascorbic acid":            "vitamin c",
	"magnesium glycinate":      "magnesium",
	"magnesium citrate":        "magnesium",
	"iron bisglycinate":        "iron",
	"ferrous sulfate":          "iron",
	"ivig":                     "immunoglobulin",
	"intravenous immunoglobulin": "immunoglobulin",
	"asa":                      "aspirin",
	"apap":                     "acetaminophen",
	"hctz":                     "hydrochlorothiazide",
	"mtx":                      "methotrexate",
}
