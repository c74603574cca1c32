package blog

type BlogRequest struct {
	Title       *string   `json:"title"`
	Excerpt     *string   `json:"excerpt"`
	Content     *string   `json:"content"`
	AuthorName  *string   `json:"authorName"`
	AuthorEmail *string   `json:"authorEmail"`
	Image       *string   `json:"image"`
	ImageID     *string   `json:"imageId"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	Published   *bool     `json:"published"`
	Featured    *bool     `json:"featured"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
