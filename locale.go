package serpscope

// Preset holds the locale parameters of a country's search engine.
type Preset struct {
	Domain string
	GL     string
	HL     string
}

// Presets maps country names to their search locale.
var Presets = map[string]Preset{
	"Australia":      {Domain: "google.com.au", GL: "au", HL: "en"},
	"New Zealand":    {Domain: "google.co.nz", GL: "nz", HL: "en"},
	"Singapore":      {Domain: "google.com.sg", GL: "sg", HL: "en"},
	"Malaysia":       {Domain: "google.com.my", GL: "my", HL: "en"},
	"India":          {Domain: "google.co.in", GL: "in", HL: "en"},
	"Japan":          {Domain: "google.co.jp", GL: "jp", HL: "ja"},
	"France":         {Domain: "google.fr", GL: "fr", HL: "fr"},
	"Germany":        {Domain: "google.de", GL: "de", HL: "de"},
	"United Kingdom": {Domain: "google.co.uk", GL: "gb", HL: "en"},
	"United States":  {Domain: "google.com", GL: "us", HL: "en"},
	"Canada":         {Domain: "google.ca", GL: "ca", HL: "en"},
	"Ireland":        {Domain: "google.ie", GL: "ie", HL: "en"},
	"Spain":          {Domain: "google.es", GL: "es", HL: "es"},
	"Italy":          {Domain: "google.it", GL: "it", HL: "it"},
	"Netherlands":    {Domain: "google.nl", GL: "nl", HL: "nl"},
	"Sweden":         {Domain: "google.se", GL: "se", HL: "sv"},
	"Norway":         {Domain: "google.no", GL: "no", HL: "no"},
	"Denmark":        {Domain: "google.dk", GL: "dk", HL: "da"},
	"Finland":        {Domain: "google.fi", GL: "fi", HL: "fi"},
	"Austria":        {Domain: "google.at", GL: "at", HL: "de"},
	"Switzerland":    {Domain: "google.ch", GL: "ch", HL: "de"},
	"Belgium":        {Domain: "google.be", GL: "be", HL: "fr"},
}
