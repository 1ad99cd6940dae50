package trademe

import "strings"

// AllRegions is the provider's "anywhere in New Zealand" region id.
const AllRegions = "0"

var regionIDs = map[string]string{
	"auckland":         "1",
	"hamilton":         "2",
	"tauranga":         "2",
	"rotorua":          "2",
	"whangarei":        "3",
	"napier":           "6",
	"palmerston north": "8",
	"new plymouth":     "10",
	"dunedin":          "12",
	"christchurch":     "14",
	"wellington":       "15",
	"nelson":           "16",
	"invercargill":     "17",
}

// RegionID maps a place name to the provider's region id. Unknown places
// search every region rather than failing.
func RegionID(location string) string {
	if id, ok := regionIDs[strings.ToLower(strings.TrimSpace(location))]; ok {
		return id
	}
	return AllRegions
}
