package report

// Options controls page layout. Units are PDF points (1/72 inch).
type Options struct {
	Title          string
	ImageTitle     string
	DateLayout     string
	PageSize       string
	Margin         float64
	ImageMaxWidth  float64
	ImageMaxHeight float64
	Compress       bool
}

// DefaultOptions matches a Letter page with one-inch margins and a
// 500x350pt image box
func DefaultOptions() Options {
	return Options{
		Title:          "Plant Analysis Report",
		ImageTitle:     "Plant Image",
		DateLayout:     "1/2/2006",
		PageSize:       "Letter",
		Margin:         72,
		ImageMaxWidth:  500,
		ImageMaxHeight: 350,
		Compress:       true,
	}
}

// WithoutCompression leaves content streams readable, useful when inspecting output
func (o Options) WithoutCompression() Options {
	o.Compress = false
	return o
}
