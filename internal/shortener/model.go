package shortener

// Link maps a short identifier to the URL it redirects to.
// ID is immutable once stored; only TargetURL changes.
type Link struct {
	ID        string
	TargetURL string
}
