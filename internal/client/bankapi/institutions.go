package bankapi

// Static institution lookup. Covers the Plaid sandbox banks; anything else
// falls back to a generic label.
var institutions = map[string]string{
	"ins_109508": "First Platypus Bank",
	"ins_109509": "First Gingham Credit Union",
	"ins_109510": "Tattersall Federal Credit Union",
	"ins_109511": "Tartan Bank",
	"ins_109512": "Houndstooth Bank",
	"ins_56":     "Chase",
	"ins_127989": "Bank of America",
	"ins_127991": "Wells Fargo",
}

const defaultInstitution = "Connected Bank"

func institutionName(id string) string {
	if name, ok := institutions[id]; ok {
		return name
	}
	return defaultInstitution
}
