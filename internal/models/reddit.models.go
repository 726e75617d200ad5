package models

// Post is a subreddit submission as used by the document builder.
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"selftext"`
}

// Comment body is nil when the source record had no body field.
type Comment struct {
	Body *string `json:"body,omitempty"`
}

// Text returns the comment body or ErrMissingField when it is absent.
func (c Comment) Text() (string, error) {
	if c.Body == nil {
		return "", ErrMissingField
	}
	return *c.Body, nil
}

type RedditAPIResponse struct {
	Kind string        `json:"kind"`
	Data RedditAPIData `json:"data"`
}

type RedditAPIData struct {
	After    string           `json:"after"`
	Before   string           `json:"before"`
	Children []RedditAPIChild `json:"children"`
}

type RedditAPIChild struct {
	Kind string             `json:"kind"`
	Data RedditAPIChildData `json:"data"`
}

type RedditAPIChildData struct {
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Body       *string `json:"body"`
	CreatedUTC float64 `json:"created_utc"`
	ID         string  `json:"id"`
	Name       string  `json:"name"`
}

func (d RedditAPIChildData) ToPost() Post {
	return Post{ID: d.ID, Title: d.Title, Body: d.Selftext}
}

func (d RedditAPIChildData) ToComment() Comment {
	return Comment{Body: d.Body}
}
