package pages

// Landing is the static home view.
type Landing struct {
	Title    string
	Subtitle string
}

// DefaultLanding is the home view shown at startup.
var DefaultLanding = Landing{
	Title:    "Welcome to",
	Subtitle: "Maharayatara's Page",
}

// String renders the title above the subtitle.
func (l Landing) String() string {
	return l.Title + "\n" + l.Subtitle
}
