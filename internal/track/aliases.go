package track

// aliases maps common short or legacy track names to their reference key
var aliases = map[string]string{
	"kempton":                "kempton park",
	"sandown":                "sandown park",
	"haydock":                "haydock park",
	"lingfield":              "lingfield park",
	"epsom":                  "epsom downs",
	"catterick":              "catterick bridge",
	"chelmsford":             "chelmsford city",
	"bangor":                 "bangor-on-dee",
	"bangor on dee":          "bangor-on-dee",
	"newmarket july":         "newmarket",
	"newmarket rowley":       "newmarket",
	"wolves":                 "wolverhampton",
	"the curragh":            "curragh",
	"stratford":              "stratford-on-avon",
	"stratford on avon":      "stratford-on-avon",
	"cheltenham festival":    "cheltenham",
	"leopardstown christmas": "leopardstown",
	"york knavesmire":        "york",
}
