// Package analysis turns a selected region into a summary with related
// links by calling the remote analysis service.
package analysis

// Link is one related resource suggested by the model.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// DisplayTitle returns the title, or the URL when the model gave none.
func (l Link) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return l.URL
}

// Result is what a panel shows. Links is never nil.
type Result struct {
	Summary string `json:"summary"`
	Links   []Link `json:"links"`
}
